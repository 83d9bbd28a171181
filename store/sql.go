package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ieeesou/pkg/logger"
	"ieeesou/pkg/metrics"
)

// dialect holds what differs between the SQL engines behind SQL.
type dialect struct {
	name   string
	schema []string
	// bind renders the n-th (1-based) placeholder.
	bind func(n int) string
	// fieldEquals renders a predicate comparing a JSON field, addressed by the
	// n-th parameter, with the (n+1)-th parameter.
	fieldEquals func(n int) string
	fieldArg    func(field string) any
	// update patches fields and stamps updated_at. Its leading parameters come
	// from patchArgs, followed by the timestamp, collection and id.
	update     string
	patchArgs  func(patch Fields) ([]any, error)
	encodeTime func(time.Time) any
}

// SQL is a Store over a single documents table holding every collection.
type SQL struct {
	db        *sql.DB
	d         dialect
	watch     *watchers
	listening atomic.Bool
	now       func() time.Time
}

func newSQL(db *sql.DB, d dialect) *SQL {
	s := &SQL{db: db, d: d, now: time.Now}
	s.watch = newWatchers(s.List)
	return s
}

// Migrate creates the documents table and anything the dialect needs with it.
func (s *SQL) Migrate(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.d.name, err)
		}
	}
	logger.Sugar.Infof("Document schema ready (%s)", s.d.name)
	return nil
}

func (s *SQL) List(ctx context.Context, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	var b strings.Builder
	args := []any{q.Collection}
	b.WriteString("SELECT id, fields, created_at, updated_at FROM documents WHERE collection = ")
	b.WriteString(s.d.bind(1))
	if q.Where != nil {
		b.WriteString(" AND ")
		b.WriteString(s.d.fieldEquals(2))
		args = append(args, s.d.fieldArg(q.Where.Field), q.Where.Value)
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		metrics.ObserveStore("list", q.Collection, err)
		return nil, fmt.Errorf("list %s: %w", q.Collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows, q.Collection)
		if err != nil {
			metrics.ObserveStore("list", q.Collection, err)
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		metrics.ObserveStore("list", q.Collection, err)
		return nil, fmt.Errorf("list %s: %w", q.Collection, err)
	}
	metrics.ObserveStore("list", q.Collection, nil)
	return docs, nil
}

func (s *SQL) Get(ctx context.Context, collection, id string) (Document, error) {
	query := fmt.Sprintf("SELECT id, fields, created_at, updated_at FROM documents WHERE collection = %s AND id = %s",
		s.d.bind(1), s.d.bind(2))
	row := s.db.QueryRowContext(ctx, query, collection, id)
	d, err := scanDocument(row, collection)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	metrics.ObserveStore("get", collection, err)
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

func (s *SQL) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	if collection == "" {
		return "", ErrInvalidQuery
	}
	set, _ := split(writable(fields))
	body, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	id := uuid.NewString()
	now := s.d.encodeTime(s.now().UTC())

	query := fmt.Sprintf("INSERT INTO documents (id, collection, fields, created_at, updated_at) VALUES (%s, %s, %s, %s, %s)",
		s.d.bind(1), s.d.bind(2), s.d.bind(3), s.d.bind(4), s.d.bind(5))
	_, err = s.db.ExecContext(ctx, query, id, collection, string(body), now, now)
	metrics.ObserveStore("create", collection, err)
	if err != nil {
		logger.Sugar.Errorf("Failed to create %s document: %v", collection, err)
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	s.changed(collection)
	return id, nil
}

func (s *SQL) Update(ctx context.Context, collection, id string, fields Fields) error {
	args, err := s.d.patchArgs(writable(fields))
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	args = append(args, s.d.encodeTime(s.now().UTC()), collection, id)
	res, err := s.db.ExecContext(ctx, s.d.update, args...)
	if err == nil {
		err = mustAffect(res)
	}
	metrics.ObserveStore("update", collection, err)
	if err != nil {
		logger.Sugar.Errorf("Failed to update %s/%s: %v", collection, id, err)
		return err
	}
	s.changed(collection)
	return nil
}

func (s *SQL) Delete(ctx context.Context, collection, id string) error {
	query := fmt.Sprintf("DELETE FROM documents WHERE collection = %s AND id = %s", s.d.bind(1), s.d.bind(2))
	res, err := s.db.ExecContext(ctx, query, collection, id)
	if err == nil {
		err = mustAffect(res)
	}
	metrics.ObserveStore("delete", collection, err)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete %s/%s: %v", collection, id, err)
		return err
	}
	s.changed(collection)
	return nil
}

func (s *SQL) Subscribe(q Query, onData func([]Document), onError func(error)) func() {
	if err := q.validate(); err != nil {
		if onError != nil {
			go onError(err)
		}
		return func() {}
	}
	return s.watch.add(q, onData, onError)
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// changed wakes local subscriptions unless a database listener will.
func (s *SQL) changed(collection string) {
	if !s.listening.Load() {
		s.watch.poke(collection)
	}
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner, collection string) (Document, error) {
	var (
		id               string
		raw              []byte
		created, updated any
	)
	if err := row.Scan(&id, &raw, &created, &updated); err != nil {
		return Document{}, err
	}
	d := Document{ID: id, Collection: collection, Fields: Fields{}}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.Fields); err != nil {
			return Document{}, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
	}
	var err error
	if d.CreatedAt, err = decodeTime(created); err != nil {
		return Document{}, err
	}
	if d.UpdatedAt, err = decodeTime(updated); err != nil {
		return Document{}, err
	}
	return d, nil
}

func decodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case int64:
		return time.Unix(0, t).UTC(), nil
	case []byte:
		return decodeTime(string(t))
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.Unix(0, n).UTC(), nil
		}
		return time.Parse(time.RFC3339Nano, t)
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %T", v)
}
