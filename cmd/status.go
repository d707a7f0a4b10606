package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statusSessionID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a session's resume control state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if statusSessionID == "" {
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

		ctrl, err := controlStatus(ctx, st, statusSessionID)
		if err != nil {
			return err
		}

		out, _ := json.MarshalIndent(ctrl, "", "  ")
		os.Stdout.Write(append(out, '\n'))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusSessionID, "session", "", "session id")
	rootCmd.AddCommand(statusCmd)
}
