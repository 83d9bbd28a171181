package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"ieeesou/internal/content/model"
	"ieeesou/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Raw HTML in markdown is escaped since WithUnsafe is not set.
var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var funcs = template.FuncMap{
	"markdown": Markdown,
	"longDate": model.LongDate,
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
}

var pages = map[string]*template.Template{}

func init() {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		pages[base] = template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", name))
	}
}

// Page is what every template executes with.
type Page struct {
	Title     string
	CSRFField template.HTML
	Data      any
}

// Render writes the named page inside the site layout.
func Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	tpl, ok := pages[name]
	if !ok {
		logger.Sugar.Errorf("Unknown template %s", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	err := tpl.Execute(&buf, Page{Title: title, CSRFField: csrf.TemplateField(r), Data: data})
	if err != nil {
		logger.Sugar.Errorf("Render %s: %v", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Markdown renders md to HTML, escaping it instead when conversion fails.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
