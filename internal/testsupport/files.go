package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"batchscribe/internal/audio"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("B", int(size))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteRecording creates an input file whose content is the duration in
// seconds. SecondsDecoder turns it into PCM of that length.
func WriteRecording(t testing.TB, dir, name string, seconds int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strconv.Itoa(seconds)), 0o644); err != nil {
		t.Fatalf("write recording %s: %v", path, err)
	}
	return path
}

// WriteSilence writes a 16 kHz mono WAV of the given length.
func WriteSilence(t testing.TB, path string, seconds int) {
	t.Helper()
	if err := audio.WritePCM(path, make([]float32, seconds*audio.SampleRate), audio.SampleRate); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
