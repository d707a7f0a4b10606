package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

var terminalizeSessionID string

var terminalizeCmd = &cobra.Command{
	Use:   "terminalize",
	Short: "Force-terminalize a session's outstanding fields",
	Long:  "Settles every still-missing field of the session's records with a cycle_cap_exhausted reason and marks the session terminal. The watchdog path for sessions that exceed the cycle cap, exposed for operators.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if terminalizeSessionID == "" {
			return eris.New("--session is required")
		}

		e, err := initEnv(ctx, "terminalize")
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.Orch.ForceTerminalize(ctx, terminalizeSessionID, model.ReasonCycleCapExhausted)
		if err != nil {
			return eris.Wrap(err, "force terminalize")
		}

		out, _ := json.MarshalIndent(res, "", "  ")
		os.Stdout.Write(append(out, '\n'))
		return nil
	},
}

func init() {
	terminalizeCmd.Flags().StringVar(&terminalizeSessionID, "session", "", "session id")
	rootCmd.AddCommand(terminalizeCmd)
}
