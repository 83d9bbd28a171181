package model

import (
	"strings"
	"time"

	"ieeesou/store"
)

const UnnamedEvent = "Unnamed Event"

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Venue       string    `json:"venue,omitempty"`
	Description string    `json:"description"`
	Speakers    string    `json:"speakers"`
	Image       string    `json:"image"`
	IsUpcoming  *bool     `json:"isUpcoming,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DecodeEvent reads an events document. Older documents carry "title"
// instead of "name"; documents with neither get UnnamedEvent.
func DecodeEvent(d store.Document) Event {
	e := Event{
		ID:          d.ID,
		Name:        d.String("name"),
		Date:        d.String("date"),
		Time:        d.String("time"),
		Venue:       d.String("venue"),
		Description: d.String("description"),
		Speakers:    d.String("speakers"),
		Image:       d.String("image"),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if e.Name == "" {
		e.Name = d.String("title")
	}
	if e.Name == "" {
		e.Name = UnnamedEvent
	}
	if v, ok := d.Bool("isUpcoming"); ok {
		e.IsUpcoming = &v
	}
	return e
}

// Upcoming reports the isUpcoming flag, false when unset.
func (e Event) Upcoming() bool {
	return e.IsUpcoming != nil && *e.IsUpcoming
}

// Fields is the field set the event editor writes. isUpcoming is maintained
// by the nightly task and never written from here.
func (e Event) Fields() store.Fields {
	return store.Fields{
		"name":        e.Name,
		"date":        e.Date,
		"time":        e.Time,
		"description": e.Description,
		"speakers":    e.Speakers,
		"image":       e.Image,
	}
}

// LongDate formats ISO dates ("2025-01-02") as "January 2, 2025" and returns
// anything else unchanged.
func LongDate(s string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return s
}
