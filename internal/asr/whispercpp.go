package asr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"batchscribe/internal/audio"
	"batchscribe/internal/logging"
	"batchscribe/internal/services"
	"batchscribe/internal/textutil"
	"batchscribe/internal/tier"
)

// CommandRunner executes a command and returns its combined diagnostics on failure.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// WhisperCPPConfig configures the whisper.cpp backend.
type WhisperCPPConfig struct {
	Binary   string
	ModelDir string
	Threads  int
}

// ModelFile returns the ggml model file name for a tier.
func ModelFile(t tier.Tier) string {
	name := t.String()
	if t == tier.Large {
		name = "large-v3"
	}
	return "ggml-" + name + ".bin"
}

// WhisperCPP runs one whisper.cpp process per chunk.
type WhisperCPP struct {
	binary    string
	modelPath string
	threads   int
	device    Device
	workDir   string
	run       CommandRunner
	logger    *slog.Logger
}

// NewWhisperCPP resolves the model for t and prepares a scratch directory for
// chunk WAVs. A missing model file is a configuration error.
func NewWhisperCPP(cfg WhisperCPPConfig, t tier.Tier, device Device, logger *slog.Logger) (*WhisperCPP, error) {
	modelPath := filepath.Join(cfg.ModelDir, ModelFile(t))
	info, err := os.Stat(modelPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "load whisper.cpp model", modelPath, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "load whisper.cpp model", modelPath, errors.New("model path is a directory"))
	}
	workDir, err := os.MkdirTemp("", "batchscribe-chunks-*")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "create scratch directory", "", err)
	}
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = "whisper-cli"
	}
	return &WhisperCPP{
		binary:    binary,
		modelPath: modelPath,
		threads:   cfg.Threads,
		device:    device,
		workDir:   workDir,
		run:       defaultCommandRunner,
		logger:    logging.NewComponentLogger(logger, "whispercpp"),
	}, nil
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperCPP) WithCommandRunner(r CommandRunner) *WhisperCPP {
	w.run = r
	return w
}

// Name implements Engine.
func (w *WhisperCPP) Name() string {
	return "whispercpp:" + filepath.Base(w.modelPath)
}

// Transcribe writes the chunk, padded or trimmed to InputSamples, to a scratch
// WAV and runs whisper.cpp on it.
func (w *WhisperCPP) Transcribe(ctx context.Context, chunk Chunk, opts Options) (string, error) {
	base := filepath.Join(w.workDir, fmt.Sprintf("chunk-%05d", chunk.Index))
	wavPath := base + ".wav"
	txtPath := base + ".txt"
	defer func() {
		_ = os.Remove(wavPath)
		_ = os.Remove(txtPath)
	}()

	rate := chunk.SampleRate
	if rate <= 0 {
		rate = audio.SampleRate
	}
	if err := audio.WritePCM(wavPath, PadOrTrim(chunk.Samples, InputSamples), rate); err != nil {
		return "", fmt.Errorf("write chunk wav: %w", err)
	}

	args := w.buildArgs(wavPath, base, opts)
	w.logger.Debug("whisper.cpp invocation", logging.String("command", w.binary+" "+strings.Join(args, " ")))
	if err := w.run(ctx, w.binary, args...); err != nil {
		return "", fmt.Errorf("whisper.cpp %s: %w", chunk, err)
	}
	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("whisper.cpp completed but transcript is missing: %w", err)
	}
	return textutil.CleanTranscript(string(data)), nil
}

func (w *WhisperCPP) buildArgs(wavPath, outBase string, opts Options) []string {
	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-of", outBase,
		"-otxt",
		"-nt",
		"-np",
		"-tp", strconv.FormatFloat(opts.Temperature, 'f', -1, 64),
	}
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	if opts.Task != "" && opts.Task != TaskTranscribe {
		args = append(args, "-tr")
	}
	if opts.NoFallback {
		args = append(args, "-nf")
	}
	if !w.device.CUDA {
		args = append(args, "-ng")
	}
	if w.threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.threads))
	}
	return args
}

// Close removes the scratch directory.
func (w *WhisperCPP) Close() error {
	if w.workDir == "" {
		return nil
	}
	return os.RemoveAll(w.workDir)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
