// Package jobdir allocates the per-run job directory that receives every
// transcript and relocated input produced by a run.
//
// Directory names follow "<YYYY-MM-DD_HH-MM-SS>_Job<N>" where N is one more
// than the highest job number already present in the base directory. Creation
// uses a non-recursive mkdir so an existing directory is detected and the next
// number is tried, up to MaxAttempts times.
package jobdir

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"batchscribe/internal/logging"
	"batchscribe/internal/services"
)

// TimestampLayout formats the allocation time prefix.
const TimestampLayout = "2006-01-02_15-04-05"

// MaxAttempts bounds the collision loop.
const MaxAttempts = 1000

// ErrExhausted reports that every candidate job number collided.
var ErrExhausted = errors.New("job directory numbers exhausted")

var jobNamePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}_Job(\d+)$`)

// Job is an allocated output directory.
type Job struct {
	CreatedAt time.Time
	Number    int
	Path      string
}

// Name returns the directory base name.
func (j Job) Name() string {
	return filepath.Base(j.Path)
}

// Allocator creates job directories. Zero value is usable.
type Allocator struct {
	Now         func() time.Time
	Mkdir       func(path string, perm os.FileMode) error
	MaxAttempts int
	Logger      *slog.Logger
}

// NewAllocator returns an allocator using the wall clock and os.Mkdir.
func NewAllocator(logger *slog.Logger) *Allocator {
	return &Allocator{Logger: logger}
}

// Allocate creates a new job directory under base.
func (a *Allocator) Allocate(base string) (Job, error) {
	now := a.now()
	start, err := NextNumber(base)
	if err != nil {
		return Job{}, services.Wrap(services.ErrAllocation, "allocation", "scan base directory", base, err)
	}
	return a.allocateWithRetry(base, now, start, a.maxAttempts())
}

func (a *Allocator) allocateWithRetry(base string, createdAt time.Time, start, maxAttempts int) (Job, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	logger := logging.NewComponentLogger(a.Logger, "jobdir")
	stamp := createdAt.Format(TimestampLayout)
	mkdir := a.mkdir()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		number := start + attempt
		path := filepath.Join(base, fmt.Sprintf("%s_Job%d", stamp, number))
		err := mkdir(path, 0o755)
		if err == nil {
			logger.Info("job directory created",
				logging.String("path", path),
				logging.Int("job_number", number),
				logging.String(logging.FieldEventType, "job_allocated"),
			)
			return Job{CreatedAt: createdAt, Number: number, Path: path}, nil
		}
		lastErr = err
		if errors.Is(err, os.ErrExist) {
			logger.Debug("job directory exists; trying next number", logging.String("path", path))
			continue
		}
		logging.WarnWithContext(logger, "job directory creation failed; trying next number", "job_allocation_retry",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the input directory"),
			logging.String(logging.FieldImpact, "allocation retries with the next job number"),
		)
	}
	cause := ErrExhausted
	if lastErr != nil {
		cause = fmt.Errorf("%w: last error: %w", ErrExhausted, lastErr)
	}
	return Job{}, services.Wrap(services.ErrAllocation, "allocation", "create job directory",
		fmt.Sprintf("%d attempts from Job%d", maxAttempts, start), cause)
}

// NextNumber returns one more than the highest job number found among the
// directories in base. A missing base directory yields 1.
func NextNumber(base string) (int, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 1, nil
		}
		return 0, err
	}
	highest := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if n, ok := ParseNumber(entry.Name()); ok && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// ParseNumber extracts N from a job directory name.
func ParseNumber(name string) (int, bool) {
	match := jobNamePattern.FindStringSubmatch(name)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (a *Allocator) now() time.Time {
	if a != nil && a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Allocator) mkdir() func(string, os.FileMode) error {
	if a != nil && a.Mkdir != nil {
		return a.Mkdir
	}
	return os.Mkdir
}

func (a *Allocator) maxAttempts() int {
	if a != nil && a.MaxAttempts > 0 {
		return a.MaxAttempts
	}
	return MaxAttempts
}
