package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

var (
	stopSessionID string
	stopReason    string
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Write the stop sentinel for a session",
	Long:  "The next resume invocation for the session finalizes as stopped and does not re-enqueue. Already-applied field writes are kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if stopSessionID == "" {
			return eris.New("--session is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		err = st.PutStop(ctx, &model.StopControl{
			ID:        model.StopDocID(stopSessionID),
			SessionID: stopSessionID,
			Stopped:   true,
			Reason:    stopReason,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return eris.Wrap(err, "write stop sentinel")
		}

		zap.L().Info("stop sentinel written", zap.String("session_id", stopSessionID))
		return nil
	},
}

func init() {
	stopCmd.Flags().StringVar(&stopSessionID, "session", "", "session id")
	stopCmd.Flags().StringVar(&stopReason, "reason", "cli_stop", "stop reason")
	rootCmd.AddCommand(stopCmd)
}
