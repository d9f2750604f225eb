package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"batchscribe/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		raw    bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent entries from the log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter.MinLevel = strings.ToLower(strings.TrimSpace(filter.MinLevel))
			out := cmd.OutOrStdout()
			path := cfg.LogPath()

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			printEntries(out, result.Entries, raw)
			if !follow {
				if len(result.Entries) == 0 {
					fmt.Fprintf(out, "No log entries in %s\n", path)
				}
				return nil
			}
			return followLog(cmd.Context(), out, path, result.Offset, filter, raw)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries until interrupted")
	cmd.Flags().BoolVar(&raw, "json", false, "Print raw JSON records")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only entries for this run (ID or prefix)")
	cmd.Flags().StringVar(&filter.File, "file", "", "Only entries for this recording")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level: debug, info, warn, error")
	return cmd
}

func followLog(ctx context.Context, out io.Writer, path string, offset int64, filter logs.Filter, raw bool) error {
	for {
		result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 2 * time.Second, Filter: filter})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		printEntries(out, result.Entries, raw)
		offset = result.Offset
		if ctx.Err() != nil {
			return nil
		}
	}
}

func printEntries(out io.Writer, entries []logs.Entry, raw bool) {
	for _, entry := range entries {
		if raw || entry.Level == "" {
			fmt.Fprintln(out, entry.Raw)
			continue
		}
		fmt.Fprintln(out, logs.Format(entry))
	}
}
