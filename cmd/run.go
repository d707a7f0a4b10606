package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

var (
	runSessionID string
	runFollow    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run resume cycles for a session inline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if runSessionID == "" {
			return eris.New("--session is required")
		}

		e, err := initEnv(ctx, "run")
		if err != nil {
			return err
		}
		defer e.Close()

		for {
			msg, err := resumeMessage(ctx, e.Store, runSessionID, "cli_run")
			if err != nil {
				return err
			}

			res, err := e.Orch.Resume(ctx, msg)
			if err != nil {
				return eris.Wrap(err, "resume cycle")
			}

			out, _ := json.MarshalIndent(res, "", "  ")
			os.Stdout.Write(append(out, '\n'))

			if !runFollow || res.Status != model.ControlQueued {
				return nil
			}

			ctrl, err := controlStatus(ctx, e.Store, runSessionID)
			if err != nil {
				return err
			}
			wait := ctrl.BackoffRemaining(time.Now())
			zap.L().Info("waiting for backoff gate",
				zap.Duration("wait", wait),
				zap.Int("cycle_count", ctrl.CycleCount))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&runSessionID, "session", "", "session id to resume")
	runCmd.Flags().BoolVar(&runFollow, "follow", false, "keep cycling until the session leaves the queued state")
	rootCmd.AddCommand(runCmd)
}
