package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resume-orchestrator/internal/model"
	"github.com/sells-group/resume-orchestrator/internal/queue"
)

var (
	seedFilePath  string
	seedSessionID string
	seedEnqueue   bool
)

// seedEntry is one record in the seed file.
type seedEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a session from a JSON record file and queue its first cycle",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(seedFilePath)
		if err != nil {
			return eris.Wrap(err, "read seed file")
		}
		var entries []seedEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return eris.Wrap(err, "parse seed file")
		}
		if len(entries) == 0 {
			return eris.New("seed file contains no records")
		}

		e, err := initEnv(ctx, "seed")
		if err != nil {
			return err
		}
		defer e.Close()

		sessionID := seedSessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		now := time.Now()

		var saved []string
		for _, entry := range entries {
			id := entry.ID
			if id == "" {
				id = uuid.NewString()
			}
			rec := &model.Record{
				ID:        id,
				SessionID: sessionID,
				Name:      entry.Name,
				Domain:    entry.Domain,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := e.Store.UpsertRecord(ctx, rec); err != nil {
				return eris.Wrapf(err, "save record %s", id)
			}
			saved = append(saved, id)
		}

		sess := &model.Session{
			ID:             model.SessionDocID(sessionID),
			SessionID:      sessionID,
			SavedRecordIDs: saved,
			ResumeNeeded:   true,
			Status:         string(model.ControlQueued),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := e.Store.UpsertSession(ctx, sess); err != nil {
			return eris.Wrap(err, "save session")
		}

		if seedEnqueue {
			msg := queue.Message{SessionID: sessionID, Reason: "seed", RunID: uuid.NewString()}
			if err := e.Queue.Enqueue(ctx, msg, 0); err != nil {
				return eris.Wrap(err, "enqueue seed message")
			}
		}

		zap.L().Info("session seeded",
			zap.String("session_id", sessionID),
			zap.Int("records", len(saved)),
			zap.Bool("enqueued", seedEnqueue),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFilePath, "file", "", "path to JSON record file (required)")
	seedCmd.Flags().StringVar(&seedSessionID, "session", "", "session id (generated when empty)")
	seedCmd.Flags().BoolVar(&seedEnqueue, "enqueue", true, "enqueue the first resume cycle")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}
