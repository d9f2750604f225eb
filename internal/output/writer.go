package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"batchscribe/internal/audio"
	"batchscribe/internal/fileutil"
	"batchscribe/internal/jobdir"
	"batchscribe/internal/logging"
	"batchscribe/internal/services"
	"batchscribe/internal/transcript"
)

// Timings are the durations recorded in the text transcript header.
type Timings struct {
	Estimated time.Duration
	Actual    time.Duration
}

// Result lists what Commit produced.
type Result struct {
	Stem         string
	SRTPath      string
	TextPath     string
	InputPath    string
	ArtifactPath string
	// RelocationErr is set when outputs were written but moving the input or
	// its artifact failed. It wraps services.ErrRelocation.
	RelocationErr error
}

// Writer commits transcripts into a job directory.
type Writer struct {
	logger *slog.Logger
	move   func(src, dst string) error
	write  func(path string, data []byte, mode os.FileMode) error
}

// NewWriter returns a writer using atomic writes and cross-device-safe moves.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{
		logger: logging.NewComponentLogger(logger, "output"),
		move:   fileutil.MoveFile,
		write:  fileutil.WriteFileAtomic,
	}
}

// RenderText builds the .txt body.
func RenderText(timings Timings, body string) string {
	return fmt.Sprintf("Estimated Time: %s\nActual Time: %s\n\n%s", FormatDuration(timings.Estimated), FormatDuration(timings.Actual), body)
}

// Commit writes <stem>.srt then <stem>.txt into job, and after both succeed
// moves the original input and the PCM artifact into job.
func (w *Writer) Commit(ctx context.Context, job jobdir.Job, src audio.Source, asm *transcript.Assembler, timings Timings) (Result, error) {
	logger := logging.WithContext(ctx, w.logger)
	name := src.Name()

	stem, err := uniqueStem(job.Path, audio.Stem(src.OriginalPath))
	if err != nil {
		return Result{}, services.Wrap(services.ErrOutput, "output", "choose output name", name, err)
	}
	result := Result{
		Stem:     stem,
		SRTPath:  filepath.Join(job.Path, stem+".srt"),
		TextPath: filepath.Join(job.Path, stem+".txt"),
	}

	srt := asm.SRT()
	if parsed, err := transcript.ParseSRT(srt); err != nil || len(parsed) != asm.Len() {
		if err == nil {
			err = fmt.Errorf("rendered %d cues, expected %d", len(parsed), asm.Len())
		}
		return Result{}, services.Wrap(services.ErrOutput, "output", "verify subtitles", name, err)
	}

	var written []string
	rollback := func() {
		for _, path := range written {
			_ = os.Remove(path)
		}
	}
	if err := w.write(result.SRTPath, []byte(srt), 0o644); err != nil {
		return Result{}, services.Wrap(services.ErrOutput, "output", "write subtitles", result.SRTPath, err)
	}
	written = append(written, result.SRTPath)
	if err := ctx.Err(); err != nil {
		rollback()
		return Result{}, err
	}
	if err := w.write(result.TextPath, []byte(RenderText(timings, asm.Text())), 0o644); err != nil {
		rollback()
		return Result{}, services.Wrap(services.ErrOutput, "output", "write transcript", result.TextPath, err)
	}

	logger.Info("transcripts written",
		logging.String("srt", result.SRTPath),
		logging.String("txt", result.TextPath),
		logging.Int("cues", asm.Len()),
		logging.String(logging.FieldEventType, "transcripts_written"),
	)

	var relocErrs []error
	if dst, err := w.relocate(src.OriginalPath, job.Path, filepath.Base(src.OriginalPath)); err != nil {
		relocErrs = append(relocErrs, err)
	} else {
		result.InputPath = dst
	}
	if src.PCMPath != "" {
		if dst, err := w.relocate(src.PCMPath, job.Path, stem+audio.ArtifactSuffix); err != nil {
			relocErrs = append(relocErrs, err)
		} else {
			result.ArtifactPath = dst
		}
	}
	if len(relocErrs) > 0 {
		result.RelocationErr = services.Wrap(services.ErrRelocation, "relocation", "move into job directory", name, errors.Join(relocErrs...))
	}
	return result, nil
}

func (w *Writer) relocate(src, dir, name string) (string, error) {
	dst, err := uniquePath(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if err := w.move(src, dst); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(src), err)
	}
	return dst, nil
}

// uniqueStem returns stem, or stem-2, stem-3, ... so that neither
// <stem>.srt nor <stem>.txt already exists in dir.
func uniqueStem(dir, stem string) (string, error) {
	for n := 1; n <= 1000; n++ {
		candidate := stem
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d", stem, n)
		}
		taken := false
		for _, ext := range []string{".srt", ".txt"} {
			exists, err := pathExists(filepath.Join(dir, candidate+ext))
			if err != nil {
				return "", err
			}
			taken = taken || exists
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free output name for %q", stem)
}

// uniquePath returns path, or path with -2, -3, ... inserted before the
// extension when it already exists.
func uniquePath(path string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if strings.HasSuffix(base, audio.ArtifactSuffix) {
		ext = audio.ArtifactSuffix
	}
	stem := strings.TrimSuffix(base, ext)
	for n := 1; n <= 1000; n++ {
		candidate := path
		if n > 1 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
		}
		exists, err := pathExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free destination for %q", base)
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
