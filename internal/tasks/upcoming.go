package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"ieeesou/pkg/logger"
	"ieeesou/store"
)

const isoDate = "2006-01-02"

// RefreshUpcoming sets isUpcoming on events dated today or later and clears
// it on past events. Documents whose flag is already right are not written;
// events without an ISO date are left alone. It returns how many changed.
func RefreshUpcoming(ctx context.Context, s store.Store, now time.Time) (int, error) {
	docs, err := s.List(ctx, store.Query{Collection: store.Events})
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	today := now.Format(isoDate)
	changed := 0
	for _, d := range docs {
		date := d.String("date")
		if _, err := time.Parse(isoDate, date); err != nil {
			continue
		}
		want := date >= today
		if have, ok := d.Bool("isUpcoming"); ok && have == want {
			continue
		}
		if err := s.Update(ctx, store.Events, d.ID, store.Fields{"isUpcoming": want}); err != nil {
			return changed, fmt.Errorf("update event %s: %w", d.ID, err)
		}
		changed++
	}
	return changed, nil
}

// InitScheduler starts the cron scheduler with the nightly upcoming refresh.
// spec is a standard five-field cron expression.
func InitScheduler(ctx context.Context, spec string, s store.Store) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := RefreshUpcoming(ctx, s, time.Now())
		if err != nil {
			logger.Sugar.Errorf("Upcoming refresh failed: %v", err)
			return
		}
		logger.Sugar.Infof("Upcoming refresh updated %d events", n)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule upcoming refresh %q: %w", spec, err)
	}
	c.Start()
	logger.Sugar.Infof("Cron scheduler started (upcoming refresh at %q)", spec)
	return c, nil
}
