package runner

import (
	"time"

	"batchscribe/internal/history"
	"batchscribe/internal/jobdir"
	"batchscribe/internal/services"
)

// FileOutcome is the result for one input.
type FileOutcome struct {
	Name          string
	Status        string
	Err           error
	AudioSeconds  int
	Estimated     time.Duration
	Elapsed       time.Duration
	SRTPath       string
	TextPath      string
	RelocationErr error
}

// Succeeded reports whether transcripts were written.
func (o FileOutcome) Succeeded() bool {
	return o.Status == history.StatusTranscribed || o.Status == history.StatusRelocationFailed
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Tier      string
	Engine    string
	Device    string
	Job       jobdir.Job
	StartedAt time.Time
	Elapsed   time.Duration
	Total     int
	Files     []FileOutcome
}

// Counts returns succeeded, failed, and cancelled file totals.
func (s Summary) Counts() (succeeded, failed, cancelled int) {
	for _, f := range s.Files {
		switch {
		case f.Succeeded():
			succeeded++
		case f.Status == history.StatusCancelled:
			cancelled++
		default:
			failed++
		}
	}
	return succeeded, failed, cancelled
}

// HistoryRun converts the summary into a ledger row.
func (s Summary) HistoryRun(language string) history.Run {
	succeeded, failed, cancelled := s.Counts()
	run := history.Run{
		ID:         s.RunID,
		StartedAt:  s.StartedAt,
		FinishedAt: s.StartedAt.Add(s.Elapsed),
		Tier:       s.Tier,
		Engine:     s.Engine,
		Language:   language,
		Device:     s.Device,
		JobDir:     s.Job.Path,
		Total:      s.Total,
		Succeeded:  succeeded,
		Failed:     failed,
		Cancelled:  cancelled,
	}
	for _, f := range s.Files {
		record := history.FileRecord{
			Name:         f.Name,
			Status:       f.Status,
			AudioSeconds: f.AudioSeconds,
			Elapsed:      f.Elapsed,
			SRTPath:      f.SRTPath,
		}
		cause := f.Err
		if cause == nil {
			cause = f.RelocationErr
		}
		if cause != nil {
			record.ErrorKind = services.Kind(cause)
			record.ErrorMessage = cause.Error()
		}
		run.Files = append(run.Files, record)
	}
	return run
}
