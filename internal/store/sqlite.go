package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Documents are stored
// as JSON blobs keyed by id, which matches the last-write-wins contract.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS resume_controls (
	session_id TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS stop_controls (
	session_id TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_records_session_id ON records(session_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE id = ?`, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}

	var r model.Record
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode record %s", id)
	}
	return &r, nil
}

func (s *SQLiteStore) UpsertRecord(ctx context.Context, r *model.Record) error {
	r.UpdatedAt = time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.UpdatedAt
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, session_id, doc, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET session_id = excluded.session_id, doc = excluded.doc, updated_at = excluded.updated_at`,
		r.ID, r.SessionID, string(doc), r.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert record %s", r.ID)
}

func (s *SQLiteStore) ListSessionRecords(ctx context.Context, sessionID string) ([]*model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM records WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list session records %s", sessionID)
	}
	defer rows.Close()

	var out []*model.Record
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		var r model.Record
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode record")
		}
		out = append(out, &r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) GetControl(ctx context.Context, sessionID string) (*model.ResumeControl, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM resume_controls WHERE session_id = ?`, sessionID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get control %s", sessionID)
	}

	var c model.ResumeControl
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode control %s", sessionID)
	}
	return &c, nil
}

func (s *SQLiteStore) UpsertControl(ctx context.Context, c *model.ResumeControl) error {
	c.UpdatedAt = time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal control")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resume_controls (session_id, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		c.SessionID, string(doc), c.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert control %s", c.SessionID)
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get session %s", sessionID)
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode session %s", sessionID)
	}
	return &sess, nil
}

func (s *SQLiteStore) UpsertSession(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal session")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		sess.SessionID, string(doc), sess.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert session %s", sess.SessionID)
}

func (s *SQLiteStore) IsStopped(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM stop_controls WHERE session_id = ?`, sessionID,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: check stop %s", sessionID)
	}
	return n > 0, nil
}

func (s *SQLiteStore) PutStop(ctx context.Context, stop *model.StopControl) error {
	if stop.CreatedAt.IsZero() {
		stop.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(stop)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stop")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stop_controls (session_id, doc, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET doc = excluded.doc`,
		stop.SessionID, string(doc), stop.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: put stop %s", stop.SessionID)
}
