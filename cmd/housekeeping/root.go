package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trackadmission/go-services/internal/app"
	"github.com/trackadmission/go-services/internal/config"
	"github.com/trackadmission/go-services/internal/housekeeping"
	"github.com/trackadmission/go-services/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "housekeeping",
	Short:         "Run content retention and trending cleanup jobs",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.Init(os.Getenv("LOG_LEVEL"))
	},
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newPurgeCmd())
}

// openApp loads config and wires the services; the caller closes the app.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(ctx, cfg), nil
}

// selectJobs keeps the named jobs, or all of them when names is empty.
func selectJobs(all []housekeeping.Job, names []string) ([]housekeeping.Job, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := map[string]housekeeping.Job{}
	known := make([]string, 0, len(all))
	for _, j := range all {
		byName[j.Name] = j
		known = append(known, j.Name)
	}
	out := make([]housekeeping.Job, 0, len(names))
	for _, n := range names {
		j, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown job %q (known: %s)", n, strings.Join(known, ", "))
		}
		out = append(out, j)
	}
	return out, nil
}
