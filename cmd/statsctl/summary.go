package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/2beens/trackfit/internal/workouts"
	"github.com/2beens/trackfit/internal/workouts/stats"
)

type summaryFlags struct {
	file        string
	period      string
	unit        string
	sourceUnit  string
	weekdays    string
	granularity string
	now         string
	timezone    string
	asJSON      bool
}

func newSummaryCmd() *cobra.Command {
	var flags summaryFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Compute the statistics bundle for an entries export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			entries, err := readEntries(flags.file)
			if err != nil {
				return err
			}

			bundle := stats.ComputeStatistics(entries, opts)
			if flags.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(bundle)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderBundle(bundle))
			return err
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "path to the entries JSON export")
	cmd.Flags().StringVar(&flags.period, "period", "30d", "period: 7d, 30d, 90d, ytd, all (or weekly, monthly, quarter)")
	cmd.Flags().StringVar(&flags.unit, "unit", "kg", "display weight unit: kg or lb")
	cmd.Flags().StringVar(&flags.sourceUnit, "source-unit", "kg", "unit the body weight is stored in")
	cmd.Flags().StringVar(&flags.weekdays, "weekdays", "month", "weekday histogram range: month or 30days")
	cmd.Flags().StringVar(&flags.granularity, "granularity", "day", "volume series buckets: day, week or month")
	cmd.Flags().StringVar(&flags.now, "now", "", "reference date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&flags.timezone, "tz", "UTC", "timezone used to resolve today")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the raw JSON bundle")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (f summaryFlags) options() (stats.Options, error) {
	period, err := stats.ParsePeriod(f.period)
	if err != nil {
		return stats.Options{}, err
	}
	unit, err := stats.ParseUnit(f.unit)
	if err != nil {
		return stats.Options{}, err
	}
	sourceUnit, err := stats.ParseUnit(f.sourceUnit)
	if err != nil {
		return stats.Options{}, err
	}
	weekdayRange, err := stats.ParseWeekdayRange(f.weekdays)
	if err != nil {
		return stats.Options{}, err
	}
	granularity, err := stats.ParseGranularity(f.granularity)
	if err != nil {
		return stats.Options{}, err
	}
	loc, err := time.LoadLocation(f.timezone)
	if err != nil {
		return stats.Options{}, fmt.Errorf("timezone: %w", err)
	}

	now := time.Now()
	if f.now != "" {
		now, err = time.ParseInLocation(workouts.DateLayout, f.now, loc)
		if err != nil {
			return stats.Options{}, fmt.Errorf("invalid --now date: %w", err)
		}
	}

	return stats.Options{
		Period:       period,
		Unit:         unit,
		SourceUnit:   sourceUnit,
		WeekdayRange: weekdayRange,
		Granularity:  granularity,
		Now:          now,
		Location:     loc,
	}, nil
}

// readEntries accepts either a plain JSON array of entries or the
// {"entries": [...]} object returned by GET /entries.
func readEntries(path string) ([]workouts.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entries file: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Entries []workouts.Entry `json:"entries"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
		return wrapped.Entries, nil
	}

	var entries []workouts.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}
