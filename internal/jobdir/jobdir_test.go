package jobdir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"batchscribe/internal/services"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

func fixedAllocator() *Allocator {
	return &Allocator{Now: func() time.Time { return fixedTime }}
}

func TestAllocateEmptyBaseStartsAtOne(t *testing.T) {
	base := t.TempDir()
	job, err := fixedAllocator().Allocate(base)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if job.Number != 1 {
		t.Fatalf("expected job 1, got %d", job.Number)
	}
	if job.Name() != "2024-03-09_14-05-07_Job1" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if info, err := os.Stat(job.Path); err != nil || !info.IsDir() {
		t.Fatalf("expected job directory to exist: %v", err)
	}
}

func TestAllocateMissingBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "missing")
	if n, err := NextNumber(base); err != nil || n != 1 {
		t.Fatalf("NextNumber on missing base = %d, %v", n, err)
	}
}

func TestAllocateUsesHighestExistingNumber(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{
		"2024-01-01_10-00-00_Job3",
		"2024-01-02_10-00-00_Job7",
		"notes",
		"2024-01-03_10-00-00_Job99x",
		"Job12",
	} {
		if err := os.Mkdir(filepath.Join(base, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// A file with a matching name is not a job directory.
	if err := os.WriteFile(filepath.Join(base, "2024-01-04_10-00-00_Job50"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	job, err := fixedAllocator().Allocate(base)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if job.Number != 8 {
		t.Fatalf("expected job 8, got %d", job.Number)
	}
}

func TestSuccessiveAllocationsAreUnique(t *testing.T) {
	base := t.TempDir()
	alloc := fixedAllocator()
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		job, err := alloc.Allocate(base)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if seen[job.Path] {
			t.Fatalf("duplicate job path %s", job.Path)
		}
		seen[job.Path] = true
		if job.Number != i+1 {
			t.Fatalf("allocation %d got number %d", i, job.Number)
		}
	}
}

func TestAllocateWithRetrySkipsCollisions(t *testing.T) {
	base := t.TempDir()
	stamp := fixedTime.Format(TimestampLayout)
	for _, n := range []string{"4", "5"} {
		if err := os.Mkdir(filepath.Join(base, stamp+"_Job"+n), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	job, err := fixedAllocator().allocateWithRetry(base, fixedTime, 4, 10)
	if err != nil {
		t.Fatalf("allocateWithRetry: %v", err)
	}
	if job.Number != 6 {
		t.Fatalf("expected collision loop to land on 6, got %d", job.Number)
	}
}

func TestAllocateWithRetryRetriesOtherErrors(t *testing.T) {
	calls := 0
	alloc := &Allocator{
		Now: func() time.Time { return fixedTime },
		Mkdir: func(path string, perm os.FileMode) error {
			calls++
			if calls < 3 {
				return errors.New("transient failure")
			}
			return nil
		},
	}
	job, err := alloc.allocateWithRetry(t.TempDir(), fixedTime, 1, 10)
	if err != nil {
		t.Fatalf("allocateWithRetry: %v", err)
	}
	if job.Number != 3 || calls != 3 {
		t.Fatalf("expected success on third attempt, got number=%d calls=%d", job.Number, calls)
	}
}

func TestAllocateWithRetryExhausts(t *testing.T) {
	calls := 0
	alloc := &Allocator{
		Mkdir: func(string, os.FileMode) error {
			calls++
			return os.ErrExist
		},
		MaxAttempts: 4,
	}
	_, err := alloc.Allocate(t.TempDir())
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, services.ErrAllocation) {
		t.Fatalf("unexpected error classification: %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"2024-03-09_14-05-07_Job1", 1, true},
		{"2024-03-09_14-05-07_Job042", 42, true},
		{"2024-03-09_14-05-07_Job", 0, false},
		{"2024-3-09_14-05-07_Job2", 0, false},
		{"x2024-03-09_14-05-07_Job2", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseNumber(%q) = %d, %v", tt.name, got, ok)
		}
	}
}
