package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"batchscribe/internal/history"
	"batchscribe/internal/output"
)

const shortIDLength = 8

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit     int
		runID     string
		pruneDays int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs recorded in the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if pruneDays > 0 {
				cutoff := time.Now().Add(-time.Duration(pruneDays) * 24 * time.Hour)
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d %s older than %d days\n", removed, pluralize(removed, "run", "runs"), pruneDays)
				return nil
			}
			if id := strings.TrimSpace(runID); id != "" {
				return printRunDetail(cmd.Context(), out, store, id)
			}
			return printRunList(cmd.Context(), out, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the files of one run (full ID or unique prefix)")
	cmd.Flags().IntVar(&pruneDays, "prune", 0, "Delete runs older than this many days")
	return cmd
}

func printRunList(ctx context.Context, out io.Writer, store *history.Store, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.Time(run.StartedAt),
			run.Tier,
			run.Engine,
			strconv.Itoa(run.Total),
			strconv.Itoa(run.Succeeded),
			strconv.Itoa(run.Failed),
			strconv.Itoa(run.Cancelled),
			output.FormatDuration(run.Elapsed()),
		})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		headers: []string{"Run", "Started", "Model", "Engine", "Files", "OK", "Failed", "Cancelled", "Elapsed"},
		rows:    rows,
		aligns: []columnAlignment{
			alignLeft, alignLeft, alignLeft, alignLeft,
			alignRight, alignRight, alignRight, alignRight, alignRight,
		},
	}))
	return nil
}

func printRunDetail(ctx context.Context, out io.Writer, store *history.Store, id string) error {
	fullID, err := resolveRunID(ctx, store, id)
	if err != nil {
		return err
	}
	run, err := store.GetRun(ctx, fullID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}

	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "Started:  %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), humanize.Time(run.StartedAt))
	fmt.Fprintf(out, "Model:    %s on %s (%s)\n", run.Tier, run.Device, run.Engine)
	fmt.Fprintf(out, "Language: %s\n", run.Language)
	if run.JobDir != "" {
		fmt.Fprintf(out, "Job:      %s\n", run.JobDir)
	}
	fmt.Fprintf(out, "Elapsed:  %s\n", output.FormatDuration(run.Elapsed()))

	if len(run.Files) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(run.Files))
	for _, f := range run.Files {
		detail := f.SRTPath
		if f.ErrorMessage != "" {
			detail = f.ErrorKind + ": " + f.ErrorMessage
		}
		rows = append(rows, []string{
			f.Name,
			f.Status,
			output.FormatDuration(secondsDuration(f.AudioSeconds)),
			output.FormatDuration(f.Elapsed),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		headers: []string{"File", "Status", "Audio", "Elapsed", "Detail"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	}))
	return nil
}

func resolveRunID(ctx context.Context, store *history.Store, prefix string) (string, error) {
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, run := range runs {
		if run.ID == prefix {
			return run.ID, nil
		}
		if strings.HasPrefix(run.ID, prefix) {
			matches = append(matches, run.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s not found", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run prefix %s is ambiguous (%d matches)", prefix, len(matches))
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func pluralize(n int64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
