package scriptglobal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
	_ "modernc.org/sqlite"
)

// Journal is an append-only durable audit log of top-level ScriptGlobal
// assignments, backed by modernc.org/sqlite (a pure-Go driver, so the
// engine keeps no cgo dependency). It supplements the spec's silence on
// auditing "reflective assignment" — the monitoring platform this engine
// belongs to wants to know who changed a top-level config value and when,
// without inventing a bespoke log format.
//
// A nil *Journal is valid and Record is then a no-op; Global works without
// one attached.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if necessary) a sqlite-backed journal at
// path. Use ":memory:" for an ephemeral, process-local journal useful in
// tests.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("scriptglobal: opening journal: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS script_global_assignments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("scriptglobal: creating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record appends one assignment row. Errors are not returned to the caller
// of Global.Set (the journal must never be able to fail evaluation); they
// are swallowed here by design, and no failure of an insert is reported
// anywhere.
func (j *Journal) Record(key string, value scriptvalue.Value) {
	if j == nil || j.db == nil {
		return
	}
	_, _ = j.db.Exec(
		`INSERT INTO script_global_assignments (ts, key, value) VALUES (?, ?, ?)`,
		time.Now().UnixNano(), key, value.Inspect(),
	)
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// History returns every recorded assignment for key, oldest first, for
// diagnostics/tests.
func (j *Journal) History(key string) ([]string, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	rows, err := j.db.Query(
		`SELECT value FROM script_global_assignments WHERE key = ? ORDER BY id ASC`, key,
	)
	if err != nil {
		return nil, fmt.Errorf("scriptglobal: querying journal: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
