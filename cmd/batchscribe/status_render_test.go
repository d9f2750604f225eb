package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"batchscribe/internal/deps"
	"batchscribe/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "Ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Available: true, Path: "/usr/bin/ffmpeg"},
		{Name: "whisper.cpp", Available: false},
		{Name: "nvidia-smi", Available: false, Optional: true, Detail: "binary \"nvidia-smi\" not found"},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[OK] Ready (/usr/bin/ffmpeg)") {
		t.Fatalf("expected ready line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] not available") {
		t.Fatalf("expected error detail, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN]") {
		t.Fatalf("expected optional dependency to warn, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "Missing dependencies:") || !strings.Contains(lines[3], "whisper.cpp") {
		t.Fatalf("expected missing summary naming whisper.cpp, got %q", lines[3])
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "Input directory", Passed: true, Detail: "/tmp/in"},
		{Name: "Model small (3)", Passed: false, Detail: "missing"},
	}, false)
	if !strings.Contains(lines[0], "[OK] /tmp/in") || !strings.Contains(lines[1], "[ERROR] missing") {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestStatusCommandSections(t *testing.T) {
	env := setupCLITestEnv(t)

	code, stdout, stderr := runCLI(t, "--config", env.configPath, "status")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (%q)", code, stderr)
	}
	for _, section := range []string{"== Configuration ==", "== Dependencies ==", "== Preflight =="} {
		requireContains(t, stdout, section)
	}
	requireContains(t, stdout, "No GPU available, using CPU.")
	requireContains(t, stdout, "English")
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
