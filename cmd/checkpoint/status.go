package main

import (
	"github.com/spf13/cobra"
)

var statusFlags struct {
	list int64
	mode string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show check-in counts for one list",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		provider, err := a.checkProvider(statusFlags.mode, statusFlags.list)
		if err != nil {
			return err
		}
		status, err := provider.Status(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}

func init() {
	statusCmd.Flags().Int64Var(&statusFlags.list, "list", 0, "check-in list id")
	statusCmd.Flags().StringVar(&statusFlags.mode, "mode", "offline", "status mode: offline or online")
	_ = statusCmd.MarkFlagRequired("list")
	rootCmd.AddCommand(statusCmd)
}
