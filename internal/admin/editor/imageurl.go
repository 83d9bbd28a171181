package editor

import "regexp"

const (
	PreviewNone    = "none"
	PreviewInvalid = "invalid"
	PreviewImage   = "image"
)

// InvalidImagePlaceholder replaces the preview when the URL does not look
// like an image.
const InvalidImagePlaceholder = "Enter a valid image URL"

// FallbackGlyph is swapped in by the renderer when a previewed image fails to
// load.
const FallbackGlyph = "data:image/svg+xml,%3Csvg xmlns='http://www.w3.org/2000/svg' width='24' height='24' viewBox='0 0 24 24' fill='none' stroke='currentColor' stroke-width='2' stroke-linecap='round' stroke-linejoin='round'%3E%3Cline x1='18' y1='6' x2='6' y2='18'%3E%3C/line%3E%3Cline x1='6' y1='6' x2='18' y2='18'%3E%3C/line%3E%3C/svg%3E"

// The check is an extension match only; it does not fetch anything.
var imageExt = regexp.MustCompile(`\.(jpeg|jpg|gif|png|webp)$`)

type Preview struct {
	State       string `json:"state"`
	Src         string `json:"src,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Fallback    string `json:"fallback,omitempty"`
}

// PreviewImageURL decides what the image preview under a URL field shows.
func PreviewImageURL(url string) Preview {
	switch {
	case url == "":
		return Preview{State: PreviewNone}
	case !imageExt.MatchString(url):
		return Preview{State: PreviewInvalid, Placeholder: InvalidImagePlaceholder}
	}
	return Preview{State: PreviewImage, Src: url, Fallback: FallbackGlyph}
}
