// Package progress reports run progress to the operator. The runner only sees
// the Observer interface; escape sequences and bar rendering stay here.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"batchscribe/internal/logging"
	"batchscribe/internal/output"
)

// Observer receives one OnProgress per finished file (successful or not) and
// one OnFinish when the run ends.
type Observer interface {
	OnProgress(elapsed time.Duration, processed, total int)
	OnFinish(elapsed time.Duration)
}

// ChunkObserver is optionally implemented by observers that echo recognized
// text as it arrives.
type ChunkObserver interface {
	OnChunk(file string, text string)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Multi fans events out to every non-nil observer in order.
type Multi []Observer

func (m Multi) OnProgress(elapsed time.Duration, processed, total int) {
	for _, o := range m {
		if o != nil {
			o.OnProgress(elapsed, processed, total)
		}
	}
}

func (m Multi) OnFinish(elapsed time.Duration) {
	for _, o := range m {
		if o != nil {
			o.OnFinish(elapsed)
		}
	}
}

func (m Multi) OnChunk(file, text string) {
	for _, o := range m {
		if c, ok := o.(ChunkObserver); ok {
			c.OnChunk(file, text)
		}
	}
}

// TerminalTitle sets the terminal window title with OSC 0 sequences.
type TerminalTitle struct {
	w io.Writer
}

// NewTerminalTitle writes titles to w, normally os.Stdout.
func NewTerminalTitle(w io.Writer) *TerminalTitle {
	return &TerminalTitle{w: w}
}

func (t *TerminalTitle) OnProgress(elapsed time.Duration, processed, total int) {
	t.set(fmt.Sprintf("Elapsed Time: %s - %d/%d files processed", output.FormatDuration(elapsed), processed, total))
}

func (t *TerminalTitle) OnFinish(elapsed time.Duration) {
	t.set("Total Elapsed Time: " + output.FormatDuration(elapsed))
}

func (t *TerminalTitle) set(title string) {
	_, _ = fmt.Fprintf(t.w, "\033]0;%s\007", title)
}

// Bar renders a file-count progress bar. The bar is drawn on the first
// progress event, when the file total is known.
type Bar struct {
	mu          sync.Mutex
	w           io.Writer
	bar         *progressbar.ProgressBar
	description string
}

// NewBar draws on w, normally os.Stderr.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w, description: "transcribing"}
}

func (b *Bar) ensure(total int) *progressbar.ProgressBar {
	if b.bar == nil {
		b.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription(b.description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetElapsedTime(true),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}
	return b.bar
}

func (b *Bar) OnProgress(_ time.Duration, processed, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.ensure(total).Set(processed)
}

func (b *Bar) OnFinish(time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// OnChunk shows the most recent recognized text as the bar description.
func (b *Bar) OnChunk(file, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.description = truncate(file+": "+text, 48)
	if b.bar != nil {
		b.bar.Describe(b.description)
	}
}

// Log emits progress as info records, sampled to 10% steps.
type Log struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewLog returns a log observer.
func NewLog(logger *slog.Logger) *Log {
	return &Log{
		logger:  logging.NewComponentLogger(logger, "progress"),
		sampler: logging.NewProgressSampler(10),
	}
}

func (l *Log) OnProgress(elapsed time.Duration, processed, total int) {
	percent := 100.0
	if total > 0 {
		percent = float64(processed) / float64(total) * 100
	}
	if !l.sampler.ShouldLog(percent, "files") {
		return
	}
	l.logger.Info("run progress",
		logging.Int("processed", processed),
		logging.Int("total", total),
		logging.Float64("percent", percent),
		logging.String("elapsed", output.FormatDuration(elapsed)),
		logging.String(logging.FieldEventType, "run_progress"),
	)
}

func (l *Log) OnFinish(elapsed time.Duration) {
	l.logger.Info("Total Elapsed Time",
		logging.String("elapsed", output.FormatDuration(elapsed)),
		logging.String(logging.FieldEventType, "run_elapsed"),
	)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
