package main

import (
	"github.com/spf13/cobra"
)

var searchFlags struct {
	list int64
	mode string
	page int
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Find tickets by attendee name, email, order code or secret",
	Long: `Search the tickets of one check-in list. Queries shorter than four
characters return nothing. Results are paged; use --page to go further.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		provider, err := a.checkProvider(searchFlags.mode, searchFlags.list)
		if err != nil {
			return err
		}
		results, err := provider.Search(cmd.Context(), args[0], searchFlags.page)
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

func init() {
	searchCmd.Flags().Int64Var(&searchFlags.list, "list", 0, "check-in list id")
	searchCmd.Flags().StringVar(&searchFlags.mode, "mode", "offline", "search mode: offline or online")
	searchCmd.Flags().IntVar(&searchFlags.page, "page", 1, "result page, starting at 1")
	_ = searchCmd.MarkFlagRequired("list")
	rootCmd.AddCommand(searchCmd)
}
