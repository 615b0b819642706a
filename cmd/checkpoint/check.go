package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eventra/checkpoint/models"
)

var checkFlags struct {
	list         int64
	mode         string
	exit         bool
	ignoreUnpaid bool
	answers      []string
}

var checkCmd = &cobra.Command{
	Use:   "check SECRET",
	Short: "Redeem one ticket",
	Long: `Redeem the ticket identified by SECRET on the given check-in list.
Answers to check-in questions are passed as --answer QUESTION_ID=VALUE
and may be repeated. By default the check runs against the local replica;
--mode online asks the server, --mode proxy forwards to an upstream hub.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := parseAnswers(checkFlags.answers)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		provider, err := a.checkProvider(checkFlags.mode, checkFlags.list)
		if err != nil {
			return err
		}

		req := models.CheckRequest{
			Secret:       args[0],
			Answers:      answers,
			IgnoreUnpaid: checkFlags.ignoreUnpaid,
		}
		if checkFlags.exit {
			req.Type = models.CheckInTypeExit
		}
		result, err := provider.Check(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func parseAnswers(pairs []string) (map[int64]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	answers := make(map[int64]string, len(pairs))
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed answer %q (want QUESTION_ID=VALUE)", pair)
		}
		questionID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed answer %q: question id must be numeric", pair)
		}
		answers[questionID] = value
	}
	return answers, nil
}

func init() {
	checkCmd.Flags().Int64Var(&checkFlags.list, "list", 0, "check-in list id")
	checkCmd.Flags().StringVar(&checkFlags.mode, "mode", "offline", "check mode: offline, online or proxy")
	checkCmd.Flags().BoolVar(&checkFlags.exit, "exit", false, "record an exit scan instead of an entry")
	checkCmd.Flags().BoolVar(&checkFlags.ignoreUnpaid, "ignore-unpaid", false, "admit pending orders where the list allows it")
	checkCmd.Flags().StringArrayVar(&checkFlags.answers, "answer", nil, "check-in question answer as QUESTION_ID=VALUE")
	_ = checkCmd.MarkFlagRequired("list")
	rootCmd.AddCommand(checkCmd)
}
