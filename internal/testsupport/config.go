package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"batchscribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The input, log, and state directories exist; the device is pinned to CPU
// so nothing probes for a GPU.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.WhisperCPP.ModelDir = filepath.Join(base, "models")
	cfgVal.Transcription.Device = config.DeviceCPU
	cfgVal.OpenAI.APIKey = "test"

	for _, dir := range []string{cfgVal.Paths.InputDir, cfgVal.Paths.LogDir, cfgVal.Paths.StateDir, cfgVal.WhisperCPP.ModelDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithEngine selects the engine backend.
func WithEngine(engine string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Engine = engine
	}
}

// WithLanguage overrides the target language.
func WithLanguage(lang string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Language = lang
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and whisper-cli are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "whisper-cli"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithModels writes placeholder model files for the given file names into
// the whisper.cpp model directory.
func WithModels(files ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range files {
			WriteFile(b.t, filepath.Join(b.cfg.WhisperCPP.ModelDir, name), 1024)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InputDir)
}
