package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventra/checkpoint/internal/service"
)

var runTick time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the background sync loop until interrupted",
	Long: `Start the periodic synchronizer and block. An immediate forced sync
runs first so a fresh device is usable right away; after that the
orchestrator's interval gating decides when cycles do real work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		if _, err := a.syncer.Sync(ctx, true, nil); err != nil {
			a.log.Error().Err(err).Msg("initial sync failed, continuing with local data")
		}

		job := service.NewSyncJob(a.syncer)
		job.Start(ctx, runTick)
		defer job.Stop()

		<-ctx.Done()
		a.log.Info().Msg("shutting down")
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&runTick, "tick", time.Minute, "how often to attempt a sync cycle")
	rootCmd.AddCommand(runCmd)
}
