package model

import (
	"time"

	"ieeesou/store"
)

const (
	MemberFaculty   = "faculty"
	MemberAdvisory  = "advisory"
	MemberExecutive = "executive"
	MemberCore      = "core"
	MemberGeneral   = "member"
)

// MemberTypes lists the member discriminants in display order.
var MemberTypes = []string{MemberFaculty, MemberAdvisory, MemberExecutive, MemberCore, MemberGeneral}

// MemberVariant carries the fields that depend on the member type.
type MemberVariant interface {
	memberType() string
}

type Faculty struct {
	Department string
}

type Advisory struct {
	Education string
}

type Executive struct {
	Education string
	Position  string
	Society   string
}

type Core struct {
	Education string
	Position  string
	Committee string
}

type General struct {
	Education string
}

func (Faculty) memberType() string   { return MemberFaculty }
func (Advisory) memberType() string  { return MemberAdvisory }
func (Executive) memberType() string { return MemberExecutive }
func (Core) memberType() string      { return MemberCore }
func (General) memberType() string   { return MemberGeneral }

type Member struct {
	ID          string
	Name        string
	Image       string
	Designation string
	LinkedIn    string
	Variant     MemberVariant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DecodeMember reads a members document. Fields that belong to another type
// are ignored; an unknown type reads as a general member.
func DecodeMember(d store.Document) Member {
	m := Member{
		ID:          d.ID,
		Name:        d.String("name"),
		Image:       d.String("image"),
		Designation: d.String("designation"),
		LinkedIn:    d.String("linkedin"),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	education := d.String("education")
	switch d.String("type") {
	case MemberFaculty:
		m.Variant = Faculty{Department: d.String("department")}
	case MemberAdvisory:
		m.Variant = Advisory{Education: education}
	case MemberExecutive:
		m.Variant = Executive{Education: education, Position: d.String("position"), Society: d.String("society")}
	case MemberCore:
		m.Variant = Core{Education: education, Position: d.String("position"), Committee: d.String("committee")}
	default:
		m.Variant = General{Education: education}
	}
	return m
}

func (m Member) Type() string {
	if m.Variant == nil {
		return MemberGeneral
	}
	return m.Variant.memberType()
}

// Position is set for executive and core members only.
func (m Member) Position() string {
	switch v := m.Variant.(type) {
	case Executive:
		return v.Position
	case Core:
		return v.Position
	}
	return ""
}

func (m Member) Education() string {
	switch v := m.Variant.(type) {
	case Advisory:
		return v.Education
	case Executive:
		return v.Education
	case Core:
		return v.Education
	case General:
		return v.Education
	}
	return ""
}

func (m Member) Department() string {
	if f, ok := m.Variant.(Faculty); ok {
		return f.Department
	}
	return ""
}

func (m Member) Society() string {
	if e, ok := m.Variant.(Executive); ok {
		return e.Society
	}
	return ""
}

func (m Member) Committee() string {
	if c, ok := m.Variant.(Core); ok {
		return c.Committee
	}
	return ""
}

// Fields is exactly the persisted field set for the member's type.
func (m Member) Fields() store.Fields {
	f := store.Fields{
		"type":        m.Type(),
		"name":        m.Name,
		"image":       m.Image,
		"designation": m.Designation,
		"linkedin":    m.LinkedIn,
	}
	switch v := m.Variant.(type) {
	case Faculty:
		f["department"] = v.Department
	case Advisory:
		f["education"] = v.Education
	case Executive:
		f["education"] = v.Education
		f["position"] = v.Position
		f["society"] = v.Society
	case Core:
		f["education"] = v.Education
		f["position"] = v.Position
		f["committee"] = v.Committee
	case General:
		f["education"] = v.Education
	}
	return f
}

func (m Member) MarshalJSON() ([]byte, error) {
	return marshalFlat(m.ID, m.CreatedAt, m.UpdatedAt, m.Fields(), nil)
}
