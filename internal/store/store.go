// Package store persists the orchestrator's documents: records, resume
// control, session mirrors and stop sentinels. The contract is a plain
// key-addressed get/upsert service, last-write-wins, no cross-document
// transactions.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

// ErrNotFound is returned for absent documents.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for the resume orchestrator.
type Store interface {
	// Records
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	UpsertRecord(ctx context.Context, r *model.Record) error
	ListSessionRecords(ctx context.Context, sessionID string) ([]*model.Record, error)

	// Resume control
	GetControl(ctx context.Context, sessionID string) (*model.ResumeControl, error)
	UpsertControl(ctx context.Context, c *model.ResumeControl) error

	// Session mirror
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	UpsertSession(ctx context.Context, s *model.Session) error

	// Stop sentinel
	IsStopped(ctx context.Context, sessionID string) (bool, error)
	PutStop(ctx context.Context, s *model.StopControl) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
