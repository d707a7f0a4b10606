package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerPollInterval time.Duration

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume resume messages from the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, "worker")
		if err != nil {
			return err
		}
		defer e.Close()

		zap.L().Info("worker started",
			zap.String("queue_driver", cfg.Queue.Driver),
			zap.Duration("poll_interval", workerPollInterval))

		ticker := time.NewTicker(workerPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				zap.L().Info("worker shutting down")
				return nil
			case <-ticker.C:
			}

			msg, err := e.Queue.Dequeue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				zap.L().Error("dequeue failed", zap.Error(err))
				continue
			}
			if msg == nil {
				continue
			}

			res, err := e.Orch.Resume(ctx, *msg)
			if err != nil {
				// The message is already consumed; the session surfaces as
				// stalled or locked and an operator retriggers it.
				zap.L().Error("resume invocation failed",
					zap.String("session_id", msg.SessionID),
					zap.Error(err))
				continue
			}
			zap.L().Info("resume invocation handled",
				zap.String("session_id", res.SessionID),
				zap.String("status", string(res.Status)),
				zap.Int("cycle_count", res.CycleCount),
				zap.Bool("did_work", res.DidWork),
				zap.String("reason", res.DidWorkReason))
		}
	},
}

func init() {
	workerCmd.Flags().DurationVar(&workerPollInterval, "poll-interval", time.Second, "queue poll interval")
	rootCmd.AddCommand(workerCmd)
}
