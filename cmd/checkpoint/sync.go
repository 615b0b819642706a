package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var syncForce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle against the server",
	Long: `Upload queued check-ins, receipts and closings, then download
server changes if the download interval has elapsed. With --force the
interval and cooldown gates are skipped and a download always runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		stats, err := a.syncer.Sync(cmd.Context(), syncForce, func(step string) {
			fmt.Fprintln(os.Stderr, step)
		})
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "state",
	Short: "Show when the last sync succeeded or failed",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		state, err := a.syncer.State(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(state)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "ignore interval and cooldown gates")
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
