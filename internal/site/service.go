package site

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"ieeesou/internal/content/model"
	"ieeesou/pkg/page"
	"ieeesou/store"
)

// MembersPerPage is the page size of the general members directory.
const MembersPerPage = 20

// Group is one titled section of a team page.
type Group struct {
	Key     string         `json:"key"`
	Title   string         `json:"title"`
	Members []model.Member `json:"members"`
}

// Societies lists the executive sections in display order.
var Societies = []Group{
	{Key: "SB", Title: "Student Branch"},
	{Key: "WIE", Title: "Women in Engineering"},
	{Key: "SPS", Title: "Signal Processing Society"},
	{Key: "CS", Title: "Computer Society"},
	{Key: "SIGHT", Title: "Special Interest Group on Humanitarian Technology"},
}

// Committees lists the core committees in display order.
var Committees = []string{
	"Technical Committee",
	"Content Committee",
	"Curation Committee",
	"Creative Committee",
	"Outreach Committee",
	"Management Committee",
}

var executiveRank = map[string]int{
	"Chairperson":      1,
	"Vice-Chairperson": 2,
	"Secretary":        3,
	"Treasurer":        4,
	"Webmaster":        5,
}

var corePriority = map[string]int{
	"chairperson":              1,
	"vice chairperson":         2,
	"interim chairperson":      3,
	"interim vice chairperson": 4,
}

// Achievements splits awards into the two sections of the achievements page.
type Achievements struct {
	Branch  []model.Award `json:"branch"`
	Student []model.Award `json:"student"`
}

// MemberPage is one page of the general members directory.
type MemberPage struct {
	Members []model.Member `json:"members"`
	Page    page.Info      `json:"page"`
}

// Home is the landing page content.
type Home struct {
	Upcoming []model.Event `json:"upcoming"`
	Awards   []model.Award `json:"awards"`
}

// Service answers the read-only queries of the public pages.
type Service struct {
	Store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{Store: s}
}

// Home returns the upcoming events, soonest first, and the latest awards.
func (s *Service) Home(ctx context.Context) (Home, error) {
	events, err := s.Events(ctx, "", "")
	if err != nil {
		return Home{}, err
	}
	var home Home
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Upcoming() {
			home.Upcoming = append(home.Upcoming, events[i])
		}
	}
	docs, err := s.Store.List(ctx, store.Query{Collection: store.Awards, Limit: 3})
	if err != nil {
		return Home{}, err
	}
	for _, d := range docs {
		home.Awards = append(home.Awards, model.DecodeAward(d))
	}
	return home, nil
}

// Events returns every event, latest date first, matching q over name and
// description. A non-empty year keeps events whose date parses to that year
// or contains it as text.
func (s *Service) Events(ctx context.Context, q, year string) ([]model.Event, error) {
	docs, err := s.Store.List(ctx, store.Query{Collection: store.Events})
	if err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(docs))
	for _, d := range docs {
		e := model.DecodeEvent(d)
		if !page.Matches(q, e.Name, e.Description) {
			continue
		}
		if year != "" && !inYear(e.Date, year) {
			continue
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return eventTime(events[i].Date).After(eventTime(events[j].Date))
	})
	return events, nil
}

// eventTime parses an event date. Unparseable dates sort last.
func eventTime(date string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "January 2, 2006", "2 January 2006"} {
		if t, err := time.Parse(layout, strings.TrimSpace(date)); err == nil {
			return t
		}
	}
	return time.Time{}
}

func inYear(date, year string) bool {
	if t := eventTime(date); !t.IsZero() && strconv.Itoa(t.Year()) == year {
		return true
	}
	return strings.Contains(date, year)
}

// Achievements returns awards newest first matching q over title and
// description, split by award type.
func (s *Service) Achievements(ctx context.Context, q string) (Achievements, error) {
	docs, err := s.Store.List(ctx, store.Query{Collection: store.Awards})
	if err != nil {
		return Achievements{}, err
	}
	out := Achievements{Branch: []model.Award{}, Student: []model.Award{}}
	for _, d := range docs {
		a := model.DecodeAward(d)
		if !page.Matches(q, a.Title, a.Description) {
			continue
		}
		if a.Type() == model.AwardStudent {
			out.Student = append(out.Student, a)
		} else {
			out.Branch = append(out.Branch, a)
		}
	}
	return out, nil
}

func (s *Service) members(ctx context.Context, memberType string) ([]model.Member, error) {
	docs, err := s.Store.List(ctx, store.Where(store.Members, "type", memberType))
	if err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.DecodeMember(d))
	}
	return out, nil
}

// Faculty returns faculty advisors newest first, matching q over name,
// department and designation.
func (s *Service) Faculty(ctx context.Context, q string) ([]model.Member, error) {
	all, err := s.members(ctx, model.MemberFaculty)
	if err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(all))
	for _, m := range all {
		if page.Matches(q, m.Name, m.Department(), m.Designation) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Advisory returns the advisory board newest first, matching q over name,
// education and designation.
func (s *Service) Advisory(ctx context.Context, q string) ([]model.Member, error) {
	all, err := s.members(ctx, model.MemberAdvisory)
	if err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(all))
	for _, m := range all {
		if page.Matches(q, m.Name, m.Education(), m.Designation) {
			out = append(out, m)
		}
	}
	return out, nil
}

// StandardPosition spells "vice chairperson" the way the executive ranking
// expects and returns other positions unchanged.
func StandardPosition(p string) string {
	if strings.EqualFold(strings.TrimSpace(p), "vice chairperson") {
		return "Vice-Chairperson"
	}
	return p
}

func executiveOrder(p string) int {
	if n, ok := executiveRank[StandardPosition(p)]; ok {
		return n
	}
	return 999
}

func corePosition(p string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(p), "-", " "))
}

func coreOrder(p string) int {
	if n, ok := corePriority[corePosition(p)]; ok {
		return n
	}
	return 99
}

// Executive groups executive members by society. Members of an unlisted
// society are left out, as are societies with no match for q.
func (s *Service) Executive(ctx context.Context, q string) ([]Group, error) {
	all, err := s.members(ctx, model.MemberExecutive)
	if err != nil {
		return nil, err
	}
	bySociety := map[string][]model.Member{}
	for _, m := range all {
		ex, ok := m.Variant.(model.Executive)
		if !ok {
			continue
		}
		ex.Position = StandardPosition(ex.Position)
		m.Variant = ex
		if page.Matches(q, m.Name, ex.Position) {
			bySociety[ex.Society] = append(bySociety[ex.Society], m)
		}
	}
	var groups []Group
	for _, g := range Societies {
		members := bySociety[g.Key]
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return executiveOrder(members[i].Position()) < executiveOrder(members[j].Position())
		})
		g.Members = members
		groups = append(groups, g)
	}
	return groups, nil
}

// Core groups core members by committee, chairs first.
func (s *Service) Core(ctx context.Context, q string) ([]Group, error) {
	all, err := s.members(ctx, model.MemberCore)
	if err != nil {
		return nil, err
	}
	byCommittee := map[string][]model.Member{}
	for _, m := range all {
		if page.Matches(q, m.Name, m.Position(), m.Designation) {
			byCommittee[m.Committee()] = append(byCommittee[m.Committee()], m)
		}
	}
	var groups []Group
	for _, c := range Committees {
		members := byCommittee[c]
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return coreOrder(members[i].Position()) < coreOrder(members[j].Position())
		})
		groups = append(groups, Group{Key: c, Title: c, Members: members})
	}
	return groups, nil
}

// Members returns one page of general members whose name matches q.
func (s *Service) Members(ctx context.Context, q string, pageNum int) (MemberPage, error) {
	all, err := s.members(ctx, model.MemberGeneral)
	if err != nil {
		return MemberPage{}, err
	}
	matched := make([]model.Member, 0, len(all))
	for _, m := range all {
		if page.Matches(q, m.Name) {
			matched = append(matched, m)
		}
	}
	info := page.New(pageNum, MembersPerPage, len(matched))
	return MemberPage{Members: page.Slice(matched, info), Page: info}, nil
}

func (s *Service) Event(ctx context.Context, id string) (model.Event, error) {
	d, err := s.Store.Get(ctx, store.Events, id)
	if err != nil {
		return model.Event{}, err
	}
	return model.DecodeEvent(d), nil
}

func (s *Service) Award(ctx context.Context, id string) (model.Award, error) {
	d, err := s.Store.Get(ctx, store.Awards, id)
	if err != nil {
		return model.Award{}, err
	}
	return model.DecodeAward(d), nil
}

func (s *Service) Member(ctx context.Context, id string) (model.Member, error) {
	d, err := s.Store.Get(ctx, store.Members, id)
	if err != nil {
		return model.Member{}, err
	}
	return model.DecodeMember(d), nil
}
