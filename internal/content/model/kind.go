package model

import (
	"fmt"

	"ieeesou/store"
)

// Kind names one of the three managed entity types.
type Kind string

const (
	KindEvent  Kind = "event"
	KindAward  Kind = "award"
	KindMember Kind = "member"
)

var Kinds = []Kind{KindEvent, KindAward, KindMember}

func (k Kind) Collection() string {
	switch k {
	case KindEvent:
		return store.Events
	case KindAward:
		return store.Awards
	case KindMember:
		return store.Members
	}
	return ""
}

// Label is the capitalized name used in headings and notices.
func (k Kind) Label() string {
	switch k {
	case KindEvent:
		return "Event"
	case KindAward:
		return "Award"
	case KindMember:
		return "Member"
	}
	return string(k)
}

// ParseKind accepts a kind or its collection name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == string(k) || s == k.Collection() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// Decode reads d as the typed entity of kind.
func Decode(kind Kind, d store.Document) any {
	switch kind {
	case KindEvent:
		return DecodeEvent(d)
	case KindAward:
		return DecodeAward(d)
	case KindMember:
		return DecodeMember(d)
	}
	return d
}
