package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT NOT NULL,
			collection TEXT NOT NULL,
			fields TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_recent_idx ON documents (collection, created_at DESC, id DESC)`,
	},
	bind:        func(n int) string { return fmt.Sprintf("?%d", n) },
	fieldEquals: func(n int) string { return fmt.Sprintf("CAST(json_extract(fields, ?%d) AS TEXT) = ?%d", n, n+1) },
	fieldArg:    func(field string) any { return "$." + field },
	// json_patch removes keys whose patch value is null.
	update:      `UPDATE documents SET fields = json_patch(fields, ?1), updated_at = ?2 WHERE collection = ?3 AND id = ?4`,
	patchArgs: func(patch Fields) ([]any, error) {
		body, err := json.Marshal(patch)
		if err != nil {
			return nil, err
		}
		return []any{string(body)}, nil
	},
	encodeTime: func(t time.Time) any { return t.UnixNano() },
}

// NewSQLite returns a Store over a SQLite database opened with the "sqlite"
// driver. Changes are only observed by subscriptions within this process.
func NewSQLite(db *sql.DB) *SQL {
	return newSQL(db, sqliteDialect)
}
