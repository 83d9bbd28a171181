package viewer

import (
	"ieeesou/internal/content/model"
	"ieeesou/store"
)

type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is one row of the list grid.
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Image       string `json:"image,omitempty"`
	Badge       string `json:"badge,omitempty"`
	Description string `json:"description,omitempty"`
	Lines       []Line `json:"lines,omitempty"`
	Armed       bool   `json:"armed"`
}

func (c *Card) line(label, value string) {
	if value != "" {
		c.Lines = append(c.Lines, Line{Label: label, Value: value})
	}
}

var awardBadges = map[string]string{
	model.AwardBranch:  "Branch Achievement",
	model.AwardStudent: "Student Achievement",
}

var memberBadges = map[string]string{
	model.MemberFaculty:   "Faculty",
	model.MemberAdvisory:  "Advisory Board",
	model.MemberExecutive: "Executive Committee",
	model.MemberCore:      "Core Committee",
	model.MemberGeneral:   "Member",
}

func eventCard(d store.Document) Card {
	e := model.DecodeEvent(d)
	c := Card{ID: e.ID, Title: e.Name, Image: e.Image, Description: e.Description}
	if e.Upcoming() {
		c.Badge = "Upcoming"
	}
	c.line("Date", model.LongDate(e.Date))
	c.line("Time", e.Time)
	c.line("Venue", e.Venue)
	c.line("Speakers", e.Speakers)
	return c
}

// Awards without a student name get no Recipient line.
func awardCard(d store.Document) Card {
	a := model.DecodeAward(d)
	c := Card{ID: a.ID, Title: a.Title, Image: a.Image, Description: a.Description, Badge: awardBadges[a.Type()]}
	c.line("Recipient", a.Recipient())
	c.line("Year", a.Year)
	return c
}

func memberCard(d store.Document) Card {
	m := model.DecodeMember(d)
	c := Card{ID: m.ID, Title: m.Name, Image: m.Image, Badge: memberBadges[m.Type()]}
	c.line("Position", m.Position())
	c.line("Designation", m.Designation)
	c.line("Department", m.Department())
	c.line("Society", m.Society())
	c.line("Committee", m.Committee())
	c.line("Education", m.Education())
	return c
}

// searchable returns the text a free-text search looks at.
func searchable(kind model.Kind, d store.Document) []string {
	switch kind {
	case model.KindEvent:
		e := model.DecodeEvent(d)
		return []string{e.Name, e.Description, e.Venue, e.Speakers, e.Date}
	case model.KindAward:
		a := model.DecodeAward(d)
		return []string{a.Title, a.Recipient(), a.Description}
	case model.KindMember:
		m := model.DecodeMember(d)
		return []string{m.Name, m.Position()}
	}
	return nil
}

func card(kind model.Kind, d store.Document) Card {
	switch kind {
	case model.KindEvent:
		return eventCard(d)
	case model.KindAward:
		return awardCard(d)
	}
	return memberCard(d)
}
