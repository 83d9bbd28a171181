package model

import (
	"time"

	"ieeesou/store"
)

const (
	AwardBranch  = "branch"
	AwardStudent = "student"
)

// AwardVariant is either BranchAward or StudentAward.
type AwardVariant interface {
	awardType() string
}

type BranchAward struct{}

type StudentAward struct {
	StudentName string
}

func (BranchAward) awardType() string  { return AwardBranch }
func (StudentAward) awardType() string { return AwardStudent }

type Award struct {
	ID          string
	Title       string
	Image       string
	Description string
	Year        string
	Variant     AwardVariant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func DecodeAward(d store.Document) Award {
	a := Award{
		ID:          d.ID,
		Title:       d.String("title"),
		Image:       d.String("image"),
		Description: d.String("description"),
		Year:        d.String("year"),
		Variant:     BranchAward{},
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.String("type") == AwardStudent {
		a.Variant = StudentAward{StudentName: d.String("studentName")}
	}
	return a
}

func (a Award) Type() string {
	if a.Variant == nil {
		return AwardBranch
	}
	return a.Variant.awardType()
}

// Recipient is the student's name for student awards and "" otherwise,
// including student awards saved without a name.
func (a Award) Recipient() string {
	if s, ok := a.Variant.(StudentAward); ok {
		return s.StudentName
	}
	return ""
}

func (a Award) Fields() store.Fields {
	f := store.Fields{
		"type":        a.Type(),
		"title":       a.Title,
		"image":       a.Image,
		"description": a.Description,
		"year":        a.Year,
	}
	if s, ok := a.Variant.(StudentAward); ok {
		f["studentName"] = s.StudentName
	}
	return f
}

func (a Award) MarshalJSON() ([]byte, error) {
	return marshalFlat(a.ID, a.CreatedAt, a.UpdatedAt, a.Fields(), map[string]any{"recipient": a.Recipient()})
}
