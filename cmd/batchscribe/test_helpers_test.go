package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"batchscribe/internal/config"
	"batchscribe/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	homeDir    string
	configPath string
}

// isolateEnvironment points HOME at an empty directory and clears the
// variables that override configuration.
func isolateEnvironment(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	for _, key := range []string{"XDG_STATE_HOME", "BATCHSCRIBE_INPUT_DIR", "OPENAI_API_KEY", "WHISPER_MODEL_DIR"} {
		t.Setenv(key, "")
	}
	return home
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	home := isolateEnvironment(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	configPath := filepath.Join(testsupport.BaseDir(cfg), "batchscribe.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, homeDir: home, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
input_dir = %q
log_dir = %q
state_dir = %q

[transcription]
language = %q
engine = %q
device = "cpu"

[whispercpp]
model_dir = %q

[logging]
level = "error"

[progress]
terminal_title = false
bar = false
`, cfg.Paths.InputDir, cfg.Paths.LogDir, cfg.Paths.StateDir,
		cfg.Transcription.Language, cfg.Transcription.Engine, cfg.WhisperCPP.ModelDir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}
