package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	code, stdout, stderr := runCLI(t, "--config", env.configPath, "config", "validate")
	if code != 0 {
		t.Fatalf("config validate: exit %d (%q)", code, stderr)
	}
	requireContains(t, stdout, "Configuration valid")
	requireContains(t, stdout, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	code, stdout, stderr = runCLI(t, "config", "init", "--path", target)
	if code != 0 {
		t.Fatalf("config init: exit %d (%q)", code, stderr)
	}
	requireContains(t, stdout, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	code, _, stderr = runCLI(t, "config", "init", "--path", target)
	if code != 1 {
		t.Fatalf("expected second init to fail, got %d", code)
	}
	requireContains(t, stderr, "already exists")

	code, _, _ = runCLI(t, "config", "init", "--path", target, "--overwrite")
	if code != 0 {
		t.Fatalf("expected overwrite to succeed, got %d", code)
	}
}

func TestConfigValidateRejectsUnknownEngine(t *testing.T) {
	env := setupCLITestEnv(t)

	code, _, stderr := runCLI(t, "--config", env.configPath, "--engine", "vosk", "config", "validate")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	requireContains(t, stderr, "transcription.engine")
}
