package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, declared so tests can
// substitute a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS resume_controls (
	session_id TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stop_controls (
	session_id TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_records_session_id ON records(session_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM records WHERE id = $1`, id,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}

	var r model.Record
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, eris.Wrapf(err, "postgres: decode record %s", id)
	}
	return &r, nil
}

func (s *PostgresStore) UpsertRecord(ctx context.Context, r *model.Record) error {
	r.UpdatedAt = time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.UpdatedAt
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (id, session_id, doc, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET session_id = EXCLUDED.session_id, doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		r.ID, r.SessionID, doc, r.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert record %s", r.ID)
}

func (s *PostgresStore) ListSessionRecords(ctx context.Context, sessionID string) ([]*model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM records WHERE session_id = $1 ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list session records %s", sessionID)
	}
	defer rows.Close()

	var out []*model.Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var r model.Record
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: decode record")
		}
		out = append(out, &r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) GetControl(ctx context.Context, sessionID string) (*model.ResumeControl, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM resume_controls WHERE session_id = $1`, sessionID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get control %s", sessionID)
	}

	var c model.ResumeControl
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, eris.Wrapf(err, "postgres: decode control %s", sessionID)
	}
	return &c, nil
}

func (s *PostgresStore) UpsertControl(ctx context.Context, c *model.ResumeControl) error {
	c.UpdatedAt = time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal control")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO resume_controls (session_id, doc, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		c.SessionID, doc, c.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert control %s", c.SessionID)
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM sessions WHERE session_id = $1`, sessionID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", sessionID)
	}

	var sess model.Session
	if err := json.Unmarshal(doc, &sess); err != nil {
		return nil, eris.Wrapf(err, "postgres: decode session %s", sessionID)
	}
	return &sess, nil
}

func (s *PostgresStore) UpsertSession(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}
	doc, err := json.Marshal(sess)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal session")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (session_id, doc, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		sess.SessionID, doc, sess.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert session %s", sess.SessionID)
}

func (s *PostgresStore) IsStopped(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM stop_controls WHERE session_id = $1`, sessionID,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: check stop %s", sessionID)
	}
	return n > 0, nil
}

func (s *PostgresStore) PutStop(ctx context.Context, stop *model.StopControl) error {
	if stop.CreatedAt.IsZero() {
		stop.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(stop)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stop")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO stop_controls (session_id, doc, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET doc = EXCLUDED.doc`,
		stop.SessionID, doc, stop.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: put stop %s", stop.SessionID)
}
