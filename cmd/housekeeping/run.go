package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/trackadmission/go-services/internal/housekeeping"
)

func newRunCmd() *cobra.Command {
	var (
		jobs    []string
		timeout time.Duration
		format  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the housekeeping jobs once and print what they changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			selected, err := selectJobs(a.Jobs(), jobs)
			if err != nil {
				return err
			}
			results := housekeeping.New(timeout, selected...).RunOnce(ctx)
			if format == "json" {
				err = outputJSON(cmd, results)
			} else {
				outputTable(cmd, results)
			}
			if err != nil {
				return err
			}
			return failed(results)
		},
	}

	cmd.Flags().StringSliceVar(&jobs, "job", nil, "Job to run (purge-versions, trim-trending); repeatable, default all")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Upper bound for the whole run")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

type resultOutput struct {
	Job        string  `json:"job"`
	Affected   int     `json:"affected"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

func outputJSON(cmd *cobra.Command, results []housekeeping.Result) error {
	out := make([]resultOutput, 0, len(results))
	for _, r := range results {
		o := resultOutput{Job: r.Job, Affected: r.Affected, DurationMS: float64(r.Duration.Microseconds()) / 1000}
		if r.Err != nil {
			o.Error = r.Err.Error()
		}
		out = append(out, o)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func outputTable(cmd *cobra.Command, results []housekeeping.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Job", "Affected", "Duration", "Error"})
	for _, r := range results {
		msg := "-"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Job, r.Affected, r.Duration.Round(time.Millisecond), msg})
	}
	t.Render()
}

func failed(results []housekeeping.Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Job, r.Err))
		}
	}
	return errors.Join(errs...)
}
