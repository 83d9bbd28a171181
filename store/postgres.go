package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ieeesou/pkg/logger"
)

// NotifyChannel is the LISTEN/NOTIFY channel the documents trigger publishes
// collection names on.
const NotifyChannel = "content_changes"

var postgresDialect = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT NOT NULL,
			collection TEXT NOT NULL,
			fields JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_recent_idx ON documents (collection, created_at DESC, id DESC)`,
		`CREATE OR REPLACE FUNCTION notify_content_change() RETURNS trigger AS $$
		BEGIN
			IF TG_OP = 'DELETE' THEN
				PERFORM pg_notify('` + NotifyChannel + `', OLD.collection);
				RETURN OLD;
			END IF;
			PERFORM pg_notify('` + NotifyChannel + `', NEW.collection);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS documents_notify ON documents`,
		`CREATE TRIGGER documents_notify AFTER INSERT OR UPDATE OR DELETE ON documents
			FOR EACH ROW EXECUTE FUNCTION notify_content_change()`,
	},
	bind:        func(n int) string { return fmt.Sprintf("$%d", n) },
	fieldEquals: func(n int) string { return fmt.Sprintf("fields->>$%d = $%d", n, n+1) },
	fieldArg:    func(field string) any { return field },
	update:      `UPDATE documents SET fields = (fields || $1::jsonb) - $2::text[], updated_at = $3 WHERE collection = $4 AND id = $5`,
	patchArgs: func(patch Fields) ([]any, error) {
		set, removed := split(patch)
		body, err := json.Marshal(set)
		if err != nil {
			return nil, err
		}
		return []any{string(body), pq.Array(removed)}, nil
	},
	encodeTime: func(t time.Time) any { return t },
}

// NewPostgres returns a Store over a Postgres database opened with lib/pq.
func NewPostgres(db *sql.DB) *SQL {
	return newSQL(db, postgresDialect)
}

// Listen subscribes to the documents trigger so that writes from any process,
// including other instances of this service, reach local subscriptions. It
// returns once LISTEN succeeded and keeps running until ctx is done.
func (s *SQL) Listen(ctx context.Context, dsn string) error {
	if s.d.name != postgresDialect.name {
		return fmt.Errorf("listen: not supported by %s", s.d.name)
	}

	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
			logger.Sugar.Warnf("Content listener connection problem: %v", err)
		case pq.ListenerEventReconnected:
			logger.Sugar.Info("Content listener reconnected")
		}
	})
	if err := l.Listen(NotifyChannel); err != nil {
		l.Close()
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	s.listening.Store(true)
	logger.Sugar.Infof("Listening for content changes on %q", NotifyChannel)

	go func() {
		defer func() {
			s.listening.Store(false)
			l.Close()
		}()
		ping := time.NewTicker(90 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case n := <-l.Notify:
				// nil follows a reconnect; anything may have changed meanwhile.
				if n == nil {
					s.watch.poke("")
					continue
				}
				s.watch.poke(n.Extra)
			case <-ping.C:
				go func() {
					if err := l.Ping(); err != nil {
						logger.Sugar.Warnf("Content listener ping failed: %v", err)
					}
				}()
			}
		}
	}()
	return nil
}
