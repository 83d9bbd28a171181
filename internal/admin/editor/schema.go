package editor

import (
	"strings"

	"ieeesou/internal/content/model"
	"ieeesou/store"
)

// Input kinds a field renders as.
const (
	InputText     = "text"
	InputURL      = "url"
	InputDate     = "date"
	InputTime     = "time"
	InputTextarea = "textarea"
	InputNumber   = "number"
	InputSelect   = "select"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Field struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Input       string   `json:"input"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	Options     []Option `json:"options,omitempty"`
	Min         int      `json:"min,omitempty"`
	Max         int      `json:"max,omitempty"`
	// Preview marks image URL fields that show a live preview.
	Preview bool `json:"preview,omitempty"`
	// ShowFor lists the discriminant values the field applies to. Empty means
	// every value.
	ShowFor []string `json:"-"`
}

func (f Field) visibleFor(discriminant string) bool {
	if len(f.ShowFor) == 0 {
		return true
	}
	for _, v := range f.ShowFor {
		if v == discriminant {
			return true
		}
	}
	return false
}

func (f Field) allows(value string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Schema describes the form for one entity kind.
type Schema struct {
	Kind model.Kind
	// Discriminant is the key of the type selector, "" when there is none.
	Discriminant string
	Default      string
	// Fallback is the variant a stored document with a missing or unknown
	// discriminant is read as. Empty means Default.
	Fallback string
	Fields   []Field
	// load turns a stored document into form values.
	load func(store.Document) map[string]string
	// build turns form values into the entity's persisted fields.
	build func(values map[string]string) store.Fields
}

func (s *Schema) field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Societies, roles and committees offered by the member form.
var (
	Societies      = []string{"SB", "WIE", "SIGHT", "SPS", "CS"}
	ExecutiveRoles = []string{"Chairperson", "Vice-Chairperson", "Secretary", "Treasurer", "Webmaster"}
	CoreRoles      = []string{"Chairperson", "Vice-Chairperson", "Interim Chairperson", "Interim Vice-Chairperson"}
	Committees     = []string{
		"Management Committee",
		"Curation Committee",
		"Content Committee",
		"Creative Committee",
		"Outreach Committee",
		"Technical Committee",
	}
)

func options(values []string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

func fromDocument(keys ...string) func(store.Document) map[string]string {
	return func(d store.Document) map[string]string {
		values := make(map[string]string, len(keys))
		for _, k := range keys {
			values[k] = d.String(k)
		}
		return values
	}
}

func trimmed(values map[string]string, key string) string {
	return strings.TrimSpace(values[key])
}

var EventSchema = &Schema{
	Kind: model.KindEvent,
	Fields: []Field{
		{Key: "name", Label: "Event Name", Input: InputText, Placeholder: "Annual Tech Conference", Required: true},
		{Key: "date", Label: "Date", Input: InputDate, Required: true},
		{Key: "time", Label: "Time", Input: InputTime, Required: true},
		{Key: "image", Label: "Event Image URL", Input: InputURL, Placeholder: "https://example.com/event-image.jpg", Required: true, Preview: true},
		{Key: "description", Label: "Description", Input: InputTextarea, Placeholder: "Event description...", Required: true},
		{Key: "speakers", Label: "Speakers", Input: InputText, Placeholder: "Dr. Jane Smith, Prof. John Doe", Required: true},
	},
	load: fromDocument("name", "date", "time", "image", "description", "speakers"),
	build: func(v map[string]string) store.Fields {
		return model.Event{
			Name:        trimmed(v, "name"),
			Date:        trimmed(v, "date"),
			Time:        trimmed(v, "time"),
			Image:       trimmed(v, "image"),
			Description: strings.TrimSpace(v["description"]),
			Speakers:    trimmed(v, "speakers"),
		}.Fields()
	},
}

var AwardSchema = &Schema{
	Kind:         model.KindAward,
	Discriminant: "type",
	Default:      model.AwardBranch,
	Fields: []Field{
		{Key: "type", Label: "Award Type", Input: InputSelect, Required: true, Options: []Option{
			{Value: model.AwardBranch, Label: "Branch Achievement"},
			{Value: model.AwardStudent, Label: "Student Achievement"},
		}},
		{Key: "title", Label: "Award Title", Input: InputText, Placeholder: "Best Department Award", Required: true},
		{Key: "studentName", Label: "Student Name", Input: InputText, Placeholder: "Jane Smith", Required: true, ShowFor: []string{model.AwardStudent}},
		{Key: "image", Label: "Award Image URL", Input: InputURL, Placeholder: "https://example.com/award-image.jpg", Required: true, Preview: true},
		{Key: "description", Label: "Description", Input: InputTextarea, Placeholder: "Award description...", Required: true},
		{Key: "year", Label: "Year", Input: InputNumber, Placeholder: "2025", Required: true, Min: 1900, Max: 2099},
	},
	load: fromDocument("type", "title", "studentName", "image", "description", "year"),
	build: func(v map[string]string) store.Fields {
		a := model.Award{
			Title:       trimmed(v, "title"),
			Image:       trimmed(v, "image"),
			Description: strings.TrimSpace(v["description"]),
			Year:        trimmed(v, "year"),
			Variant:     model.BranchAward{},
		}
		if v["type"] == model.AwardStudent {
			a.Variant = model.StudentAward{StudentName: trimmed(v, "studentName")}
		}
		return a.Fields()
	},
}

var nonFaculty = []string{model.MemberAdvisory, model.MemberExecutive, model.MemberCore, model.MemberGeneral}

var MemberSchema = &Schema{
	Kind:         model.KindMember,
	Discriminant: "type",
	Default:      model.MemberFaculty,
	Fallback:     model.MemberGeneral,
	Fields: []Field{
		{Key: "type", Label: "Member Type", Input: InputSelect, Required: true, Options: []Option{
			{Value: model.MemberFaculty, Label: "Faculty Member"},
			{Value: model.MemberAdvisory, Label: "Advisory Board Member"},
			{Value: model.MemberExecutive, Label: "Executive Committee Member"},
			{Value: model.MemberCore, Label: "Core Committee Member"},
			{Value: model.MemberGeneral, Label: "Member"},
		}},
		{Key: "image", Label: "Image URL", Input: InputURL, Placeholder: "https://example.com/image.jpg", Required: true, Preview: true},
		{Key: "name", Label: "Name", Input: InputText, Placeholder: "John Doe", Required: true},
		{Key: "designation", Label: "Designation", Input: InputText, Placeholder: "Professor", Required: true},
		{Key: "linkedin", Label: "LinkedIn Profile URL", Input: InputText, Placeholder: "https://linkedin.com/in/johndoe"},
		{Key: "department", Label: "Department", Input: InputText, Placeholder: "Computer Science", Required: true, ShowFor: []string{model.MemberFaculty}},
		{Key: "society", Label: "Society/Chapter/Group", Input: InputSelect, Required: true, Options: options(Societies), ShowFor: []string{model.MemberExecutive}},
		{Key: "executivePosition", Label: "Position", Input: InputSelect, Required: true, Options: options(ExecutiveRoles), ShowFor: []string{model.MemberExecutive}},
		{Key: "committee", Label: "Committee", Input: InputSelect, Required: true, Options: options(Committees), ShowFor: []string{model.MemberCore}},
		{Key: "corePosition", Label: "Position", Input: InputSelect, Required: true, Options: options(CoreRoles), ShowFor: []string{model.MemberCore}},
		{Key: "education", Label: "Education", Input: InputText, Placeholder: "Ph.D. in Computer Science", Required: true, ShowFor: nonFaculty},
	},
	load: func(d store.Document) map[string]string {
		v := fromDocument("type", "image", "name", "designation", "linkedin", "department", "society", "committee", "education")(d)
		// Both position selectors edit the stored "position".
		switch d.String("type") {
		case model.MemberExecutive:
			v["executivePosition"] = d.String("position")
		case model.MemberCore:
			v["corePosition"] = d.String("position")
		}
		return v
	},
	build: func(v map[string]string) store.Fields {
		m := model.Member{
			Name:        trimmed(v, "name"),
			Image:       trimmed(v, "image"),
			Designation: trimmed(v, "designation"),
			LinkedIn:    trimmed(v, "linkedin"),
		}
		education := trimmed(v, "education")
		switch v["type"] {
		case model.MemberFaculty:
			m.Variant = model.Faculty{Department: trimmed(v, "department")}
		case model.MemberAdvisory:
			m.Variant = model.Advisory{Education: education}
		case model.MemberExecutive:
			m.Variant = model.Executive{Education: education, Position: v["executivePosition"], Society: v["society"]}
		case model.MemberCore:
			m.Variant = model.Core{Education: education, Position: v["corePosition"], Committee: v["committee"]}
		default:
			m.Variant = model.General{Education: education}
		}
		return m.Fields()
	},
}

// SchemaFor returns the form schema of kind.
func SchemaFor(kind model.Kind) *Schema {
	switch kind {
	case model.KindEvent:
		return EventSchema
	case model.KindAward:
		return AwardSchema
	case model.KindMember:
		return MemberSchema
	}
	return nil
}

// managed lists every persisted key the schema can write, across all
// discriminant values.
func (s *Schema) managed() []string {
	seen := map[string]bool{}
	var keys []string
	add := func(f store.Fields) {
		for k := range f {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	if s.Discriminant == "" {
		add(s.build(map[string]string{}))
		return keys
	}
	discriminant, _ := s.field(s.Discriminant)
	for _, o := range discriminant.Options {
		add(s.build(map[string]string{s.Discriminant: o.Value}))
	}
	return keys
}
