package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ieeesou/store"
)

func doc(fields store.Fields) store.Document {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return store.Document{ID: "id1", Fields: fields, CreatedAt: now, UpdatedAt: now}
}

func TestDecodeEventNameFallbacks(t *testing.T) {
	assert.Equal(t, "Conf", DecodeEvent(doc(store.Fields{"name": "Conf", "title": "Old"})).Name)
	assert.Equal(t, "Old", DecodeEvent(doc(store.Fields{"title": "Old"})).Name)
	assert.Equal(t, UnnamedEvent, DecodeEvent(doc(store.Fields{})).Name)
}

func TestDecodeEventUpcoming(t *testing.T) {
	e := DecodeEvent(doc(store.Fields{"isUpcoming": true}))
	require.NotNil(t, e.IsUpcoming)
	assert.True(t, e.Upcoming())

	e = DecodeEvent(doc(store.Fields{"isUpcoming": "yes"}))
	assert.Nil(t, e.IsUpcoming)
	assert.False(t, e.Upcoming())

	assert.NotContains(t, e.Fields(), "isUpcoming")
}

func TestAwardVariants(t *testing.T) {
	branch := DecodeAward(doc(store.Fields{"type": "branch", "title": "Best SB", "studentName": "stale"}))
	assert.Equal(t, AwardBranch, branch.Type())
	assert.Equal(t, "", branch.Recipient())
	assert.NotContains(t, branch.Fields(), "studentName")

	student := DecodeAward(doc(store.Fields{"type": "student", "title": "Scholar", "studentName": "Riya"}))
	assert.Equal(t, "Riya", student.Recipient())
	assert.Equal(t, "Riya", student.Fields()["studentName"])

	nameless := DecodeAward(doc(store.Fields{"type": "student", "title": "Scholar"}))
	assert.Equal(t, AwardStudent, nameless.Type())
	assert.Equal(t, "", nameless.Recipient())

	assert.Equal(t, AwardBranch, DecodeAward(doc(store.Fields{})).Type())
}

func TestAwardYearFromNumber(t *testing.T) {
	a := DecodeAward(doc(store.Fields{"year": float64(2024)}))
	assert.Equal(t, "2024", a.Year)
}

func TestMemberFieldsMatchType(t *testing.T) {
	all := store.Fields{
		"name": "N", "image": "i.png", "designation": "D", "linkedin": "L",
		"department": "CSE", "education": "B.Tech", "position": "Chairperson",
		"society": "WIE", "committee": "Technical Committee",
	}
	cases := map[string][]string{
		MemberFaculty:   {"department"},
		MemberAdvisory:  {"education"},
		MemberExecutive: {"education", "position", "society"},
		MemberCore:      {"education", "position", "committee"},
		MemberGeneral:   {"education"},
	}
	base := []string{"type", "name", "image", "designation", "linkedin"}

	for typ, extra := range cases {
		f := store.Fields{"type": typ}
		for k, v := range all {
			f[k] = v
		}
		m := DecodeMember(doc(f))
		assert.Equal(t, typ, m.Type())

		var keys []string
		for k := range m.Fields() {
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, append(append([]string{}, base...), extra...), keys, typ)
	}
}

func TestMemberAccessors(t *testing.T) {
	faculty := DecodeMember(doc(store.Fields{"type": "faculty", "department": "EE", "position": "ignored"}))
	assert.Equal(t, "EE", faculty.Department())
	assert.Equal(t, "", faculty.Position())
	assert.Equal(t, "", faculty.Education())

	core := DecodeMember(doc(store.Fields{"type": "core", "position": "Chairperson", "committee": "Content Committee"}))
	assert.Equal(t, "Chairperson", core.Position())
	assert.Equal(t, "Content Committee", core.Committee())
	assert.Equal(t, "", core.Society())

	unknown := DecodeMember(doc(store.Fields{"type": "alumni", "education": "MSc"}))
	assert.Equal(t, MemberGeneral, unknown.Type())
	assert.Equal(t, "MSc", unknown.Education())
}

func TestEntityJSON(t *testing.T) {
	b, err := json.Marshal(DecodeAward(doc(store.Fields{"type": "student", "title": "T", "studentName": "S"})))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "id1", out["id"])
	assert.Equal(t, "S", out["recipient"])
	assert.Equal(t, "student", out["type"])
}

func TestLongDate(t *testing.T) {
	assert.Equal(t, "January 1, 2025", LongDate("2025-01-01"))
	assert.Equal(t, "March 9, 2024", LongDate("2024-03-09T10:00:00Z"))
	assert.Equal(t, "Spring 2024", LongDate("Spring 2024"))
	assert.Equal(t, "", LongDate(""))
}
