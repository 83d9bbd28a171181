package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"ieeesou/internal/content/model"
	"ieeesou/store"
)

// RecentLimit is how many items the activity feed shows.
const RecentLimit = 10

const UnnamedItem = "Unnamed Item"

// Activity is one row of the recent activity feed.
type Activity struct {
	Kind      model.Kind     `json:"kind"`
	TypeLabel string         `json:"typeLabel"`
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	CreatedAt time.Time      `json:"createdAt"`
	Ago       string         `json:"ago"`
	Document  store.Document `json:"document"`
}

type Summary struct {
	Events  int        `json:"events"`
	Awards  int        `json:"awards"`
	Members int        `json:"members"`
	Recent  []Activity `json:"recent"`
}

// Total is the number of documents across all collections.
func (s Summary) Total() int { return s.Events + s.Awards + s.Members }

// Share is the percentage of all documents that belong to kind.
func (s Summary) Share(kind model.Kind) int {
	total := s.Total()
	if total == 0 {
		return 0
	}
	n := s.Events
	switch kind {
	case model.KindAward:
		n = s.Awards
	case model.KindMember:
		n = s.Members
	}
	return n * 100 / total
}

// Label is the title, else the name, else UnnamedItem.
func Label(d store.Document) string {
	if t := d.String("title"); t != "" {
		return t
	}
	if n := d.String("name"); n != "" {
		return n
	}
	return UnnamedItem
}

// Load fetches all three collections once and builds the summary. It is not
// live; callers reload it on demand.
func Load(ctx context.Context, s store.Store, now time.Time) (Summary, error) {
	lists := make([][]store.Document, len(model.Kinds))
	g, ctx := errgroup.WithContext(ctx)
	for i, kind := range model.Kinds {
		g.Go(func() error {
			docs, err := s.List(ctx, store.Query{Collection: kind.Collection()})
			lists[i] = docs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sum := Summary{Events: len(lists[0]), Awards: len(lists[1]), Members: len(lists[2])}
	var all []Activity
	for i, kind := range model.Kinds {
		for _, d := range lists[i] {
			all = append(all, Activity{
				Kind:      kind,
				TypeLabel: kind.Label(),
				ID:        d.ID,
				Label:     Label(d),
				CreatedAt: d.CreatedAt,
				Ago:       humanize.RelTime(d.CreatedAt, now, "ago", "from now"),
				Document:  d,
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > RecentLimit {
		all = all[:RecentLimit]
	}
	sum.Recent = all
	return sum, nil
}
