package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit
// testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_GetRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	doc, err := json.Marshal(&model.Record{ID: "rec-1", SessionID: "sess-1", Name: "Acme"})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT doc FROM records WHERE id = \$1`).
		WithArgs("rec-1").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(doc))

	got, err := s.GetRecord(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT doc FROM records WHERE id = \$1`).
		WithArgs("absent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRecord(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO records`).
		WithArgs("rec-1", "sess-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertRecord(context.Background(), &model.Record{ID: "rec-1", SessionID: "sess-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSessionRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	docA, _ := json.Marshal(&model.Record{ID: "rec-a", SessionID: "sess-1"})
	docB, _ := json.Marshal(&model.Record{ID: "rec-b", SessionID: "sess-1"})

	mock.ExpectQuery(`SELECT doc FROM records WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(docA).AddRow(docB))

	got, err := s.ListSessionRecords(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rec-a", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ControlRoundTrip(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO resume_controls`).
		WithArgs("sess-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := &model.ResumeControl{
		ID:        model.ControlDocID("sess-1"),
		SessionID: "sess-1",
		Status:    model.ControlQueued,
	}
	require.NoError(t, s.UpsertControl(context.Background(), c))

	doc, _ := json.Marshal(c)
	mock.ExpectQuery(`SELECT doc FROM resume_controls WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(doc))

	got, err := s.GetControl(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.ControlQueued, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IsStopped(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM stop_controls WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	stopped, err := s.IsStopped(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, stopped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS records`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
