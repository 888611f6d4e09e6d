package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trackadmission/go-services/internal/housekeeping"
	"github.com/trackadmission/go-services/pkg/logger"
)

func newScheduleCmd() *cobra.Command {
	var (
		spec    string
		jobs    []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the housekeeping jobs on a schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			if spec == "" {
				spec = a.Config.Versioning.PurgeSchedule
			}
			selected, err := selectJobs(a.Jobs(), jobs)
			if err != nil {
				return err
			}
			s := housekeeping.New(timeout, selected...)
			if err := s.Schedule(spec); err != nil {
				return err
			}
			s.Start()
			logger.Infof("housekeeping scheduled %q", spec)

			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return s.Stop(sctx)
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "Cron spec or @every interval (default VERSIONING_PURGE_SCHEDULE)")
	cmd.Flags().StringSliceVar(&jobs, "job", nil, "Job to schedule; repeatable, default all")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Upper bound for each run")
	return cmd
}
