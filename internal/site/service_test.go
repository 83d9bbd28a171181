package site

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ieeesou/internal/content/model"
	"ieeesou/store"
)

func seed(t *testing.T, s store.Store, collection string, docs ...store.Fields) []string {
	t.Helper()
	ids := make([]string, 0, len(docs))
	for _, f := range docs {
		id, err := s.Create(context.Background(), collection, f)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func names(members []model.Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Name
	}
	return out
}

func TestEventsOrderAndFilters(t *testing.T) {
	s := store.NewMemory()
	seed(t, s, store.Events,
		store.Fields{"name": "Old Workshop", "date": "2023-03-10", "description": "soldering"},
		store.Fields{"name": "New Talk", "date": "2025-02-01", "description": "AI ethics"},
		store.Fields{"name": "Hackathon", "date": "2024-11-20", "description": "24 hours of code"},
		store.Fields{"name": "Fest", "date": "Spring 2024", "description": "annual fest"},
	)
	svc := NewService(s)
	ctx := context.Background()

	// 1. Latest date first, unparseable dates last
	events, err := svc.Events(ctx, "", "")
	require.NoError(t, err)
	var got []string
	for _, e := range events {
		got = append(got, e.Name)
	}
	assert.Equal(t, []string{"New Talk", "Hackathon", "Old Workshop", "Fest"}, got)

	// 2. Search over description, ignoring case
	events, err = svc.Events(ctx, "ETHICS", "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "New Talk", events[0].Name)

	// 3. Year matches parsed dates and free-text dates
	events, err = svc.Events(ctx, "", "2024")
	require.NoError(t, err)
	got = got[:0]
	for _, e := range events {
		got = append(got, e.Name)
	}
	assert.Equal(t, []string{"Hackathon", "Fest"}, got)

	// 4. Search and year combine
	events, err = svc.Events(ctx, "code", "2023")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAchievementsSplit(t *testing.T) {
	s := store.NewMemory()
	seed(t, s, store.Awards,
		store.Fields{"type": "branch", "title": "Best Branch", "description": "region 10"},
		store.Fields{"type": "student", "title": "Paper Award", "studentName": "Asha", "description": "IEEE conf"},
		store.Fields{"type": "branch", "title": "Outstanding Volunteer", "description": "service"},
	)
	svc := NewService(s)

	a, err := svc.Achievements(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, a.Branch, 2)
	assert.Equal(t, "Outstanding Volunteer", a.Branch[0].Title)
	assert.Equal(t, "Best Branch", a.Branch[1].Title)
	require.Len(t, a.Student, 1)
	assert.Equal(t, "Asha", a.Student[0].Recipient())

	a, err = svc.Achievements(context.Background(), "region")
	require.NoError(t, err)
	assert.Len(t, a.Branch, 1)
	assert.Empty(t, a.Student)
}

func TestExecutiveGroups(t *testing.T) {
	s := store.NewMemory()
	exec := func(name, position, society string) store.Fields {
		return store.Fields{"type": "executive", "name": name, "position": position, "society": society}
	}
	seed(t, s, store.Members,
		exec("Webb", "Webmaster", "SB"),
		exec("Vera", "vice chairperson", "SB"),
		exec("Chad", "Chairperson", "SB"),
		exec("Sam", "Secretary", "CS"),
		exec("Uma", "Chairperson", "UNKNOWN"),
		store.Fields{"type": "core", "name": "Cora", "position": "Chairperson", "committee": "Technical Committee"},
	)
	svc := NewService(s)

	groups, err := svc.Executive(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "SB", groups[0].Key)
	assert.Equal(t, "Student Branch", groups[0].Title)
	assert.Equal(t, []string{"Chad", "Vera", "Webb"}, names(groups[0].Members))
	assert.Equal(t, "Vice-Chairperson", groups[0].Members[1].Position())

	assert.Equal(t, "CS", groups[1].Key)
	assert.Equal(t, []string{"Sam"}, names(groups[1].Members))

	// Search matches the normalized position
	groups, err = svc.Executive(context.Background(), "vice-chair")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Vera"}, names(groups[0].Members))
}

func TestCoreGroups(t *testing.T) {
	s := store.NewMemory()
	core := func(name, position, committee string) store.Fields {
		return store.Fields{"type": "core", "name": name, "position": position, "committee": committee}
	}
	seed(t, s, store.Members,
		core("Mia", "Member", "Technical Committee"),
		core("Ivan", "Interim Chairperson", "Technical Committee"),
		core("Vic", "Vice-Chairperson", "Technical Committee"),
		core("Cal", "Chairperson", "Technical Committee"),
		core("Ola", "Chairperson", "Outreach Committee"),
		core("Zed", "Chairperson", "Nonexistent Committee"),
	)
	svc := NewService(s)

	groups, err := svc.Core(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Technical Committee", groups[0].Title)
	assert.Equal(t, []string{"Cal", "Vic", "Ivan", "Mia"}, names(groups[0].Members))
	assert.Equal(t, "Outreach Committee", groups[1].Title)
}

func TestMembersPages(t *testing.T) {
	s := store.NewMemory()
	for i := 0; i < 25; i++ {
		seed(t, s, store.Members, store.Fields{"type": "member", "name": fmt.Sprintf("Student %02d", i)})
	}
	seed(t, s, store.Members, store.Fields{"type": "faculty", "name": "Student Advisor"})
	svc := NewService(s)
	ctx := context.Background()

	mp, err := svc.Members(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, mp.Members, MembersPerPage)
	assert.Equal(t, 25, mp.Page.Total)
	assert.Equal(t, 2, mp.Page.TotalPages)

	mp, err = svc.Members(ctx, "", 9)
	require.NoError(t, err)
	assert.Equal(t, 2, mp.Page.Page)
	assert.Len(t, mp.Members, 5)

	mp, err = svc.Members(ctx, "student 1", 1)
	require.NoError(t, err)
	assert.Len(t, mp.Members, 10)
	assert.False(t, mp.Page.ShowPagination())
}

func TestFacultyAndAdvisorySearch(t *testing.T) {
	s := store.NewMemory()
	seed(t, s, store.Members,
		store.Fields{"type": "faculty", "name": "Dr. Rao", "department": "Electronics", "designation": "Professor"},
		store.Fields{"type": "faculty", "name": "Dr. Shah", "department": "Computer", "designation": "HOD"},
		store.Fields{"type": "advisory", "name": "Neel", "education": "M.Tech", "designation": "Engineer"},
	)
	svc := NewService(s)
	ctx := context.Background()

	faculty, err := svc.Faculty(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dr. Shah", "Dr. Rao"}, names(faculty))

	faculty, err = svc.Faculty(ctx, "electronics")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dr. Rao"}, names(faculty))

	advisory, err := svc.Advisory(ctx, "m.tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"Neel"}, names(advisory))
}

func TestHome(t *testing.T) {
	s := store.NewMemory()
	seed(t, s, store.Events,
		store.Fields{"name": "Later", "date": "2030-05-01", "isUpcoming": true},
		store.Fields{"name": "Past", "date": "2020-05-01", "isUpcoming": false},
		store.Fields{"name": "Sooner", "date": "2030-01-01", "isUpcoming": true},
	)
	for i := 0; i < 5; i++ {
		seed(t, s, store.Awards, store.Fields{"type": "branch", "title": fmt.Sprintf("Award %d", i)})
	}

	home, err := NewService(s).Home(context.Background())
	require.NoError(t, err)
	require.Len(t, home.Upcoming, 2)
	assert.Equal(t, "Sooner", home.Upcoming[0].Name)
	assert.Equal(t, "Later", home.Upcoming[1].Name)
	require.Len(t, home.Awards, 3)
	assert.Equal(t, "Award 4", home.Awards[0].Title)
}

func TestStandardPosition(t *testing.T) {
	assert.Equal(t, "Vice-Chairperson", StandardPosition("Vice Chairperson"))
	assert.Equal(t, "Vice-Chairperson", StandardPosition(" vice chairperson "))
	assert.Equal(t, "Treasurer", StandardPosition("Treasurer"))
}

func TestUnavailableStore(t *testing.T) {
	_, err := NewService(store.Unavailable{}).Events(context.Background(), "", "")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}
