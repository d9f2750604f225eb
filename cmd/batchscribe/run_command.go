package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"batchscribe/internal/history"
	"batchscribe/internal/logging"
	"batchscribe/internal/notifications"
	"batchscribe/internal/output"
	"batchscribe/internal/progress"
	"batchscribe/internal/runner"
	"batchscribe/internal/services"
	"batchscribe/internal/tier"
)

func runBatch(cmd *cobra.Command, ctx *commandContext, selector string) error {
	t, err := tier.Parse(selector)
	if err != nil {
		return err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	observers := progress.Multi{progress.NewLog(logger)}
	if cfg.Progress.TerminalTitle && !ctx.flags.noTitle && progress.IsTerminal(os.Stdout) {
		observers = append(observers, progress.NewTerminalTitle(os.Stdout))
	}
	if cfg.Progress.Bar && progress.IsTerminal(os.Stderr) {
		observers = append(observers, progress.NewBar(os.Stderr))
	}
	opts := []runner.Option{runner.WithObserver(observers)}

	if cfg.History.Enabled {
		store, err := history.Open(cmd.Context(), cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String("path", cfg.HistoryPath()),
				logging.String(logging.FieldImpact, "this run will not be recorded"),
			)
		} else {
			defer store.Close()
			opts = append(opts, runner.WithRecorder(store))
		}
	}

	logger.Info(fmt.Sprintf("%s v%s", appName, version),
		logging.String("model", t.Title()),
		logging.String("language", cfg.LanguageName()),
		logging.String("input_dir", cfg.Paths.InputDir),
		logging.String("config", ctx.configPath),
	)

	notifier := notifications.NewService(cfg)
	// Interrupted runs still report their outcome.
	notifyCtx := context.WithoutCancel(cmd.Context())
	if notifier.Enabled() {
		if files, err := runner.Eligible(cfg.Paths.InputDir); err == nil && len(files) > 0 {
			warnNotify(logger, notifier.NotifyRunStarted(notifyCtx, t.String(), len(files)))
		}
	}

	summary, err := runner.New(cfg, t, logger, opts...).Run(cmd.Context())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			warnNotify(logger, notifier.NotifyError(notifyCtx, err, "transcription run"))
		}
		return err
	}
	if summary.Total > 0 {
		succeeded, failed, cancelled := summary.Counts()
		warnNotify(logger, notifier.NotifyRunCompleted(notifyCtx, notifications.RunReport{
			Model:     summary.Tier,
			Total:     summary.Total,
			Succeeded: succeeded,
			Failed:    failed,
			Cancelled: cancelled,
			Elapsed:   summary.Elapsed,
			JobDir:    summary.Job.Path,
		}))
	}

	out := cmd.OutOrStdout()
	printRunSummary(out, summary)
	fmt.Fprintf(out, "Total Elapsed Time: %s\n", output.FormatDuration(summary.Elapsed))
	return cmd.Context().Err()
}

func printRunSummary(out io.Writer, summary runner.Summary) {
	if summary.Total == 0 {
		fmt.Fprintln(out, "No audio files to transcribe.")
		return
	}
	rows := make([][]string, 0, len(summary.Files))
	for _, f := range summary.Files {
		rows = append(rows, []string{
			f.Name,
			f.Status,
			output.FormatDuration(secondsDuration(f.AudioSeconds)),
			output.FormatDuration(f.Elapsed),
			outcomeDetail(f),
		})
	}
	succeeded, failed, cancelled := summary.Counts()
	footer := []string{
		fmt.Sprintf("%d files", summary.Total),
		fmt.Sprintf("%d ok / %d failed / %d cancelled", succeeded, failed, cancelled),
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		headers: []string{"File", "Status", "Audio", "Elapsed", "Output"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		footer:  footer,
	}))
	if summary.Job.Path != "" {
		fmt.Fprintf(out, "Job folder: %s (created %s)\n", summary.Job.Path, humanize.Time(summary.Job.CreatedAt))
	}
}

func outcomeDetail(f runner.FileOutcome) string {
	switch {
	case f.Err != nil:
		return services.Kind(f.Err) + " error"
	case f.RelocationErr != nil:
		return filepath.Base(f.SRTPath) + " (input not moved)"
	case f.SRTPath != "":
		return filepath.Base(f.SRTPath) + ", " + filepath.Base(f.TextPath)
	default:
		return ""
	}
}

func warnNotify(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "notification not delivered", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "the run itself is unaffected"),
	)
}
