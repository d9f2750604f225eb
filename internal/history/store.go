package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// File statuses recorded per input.
const (
	StatusTranscribed      = "transcribed"
	StatusRelocationFailed = "relocation_failed"
	StatusFailed           = "failed"
	StatusCancelled        = "cancelled"
)

// FileRecord is one input's outcome within a run.
type FileRecord struct {
	Name         string
	Status       string
	ErrorKind    string
	ErrorMessage string
	AudioSeconds int
	Elapsed      time.Duration
	SRTPath      string
}

// Run is one invocation of the batch.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Tier       string
	Engine     string
	Language   string
	Device     string
	JobDir     string
	Total      int
	Succeeded  int
	Failed     int
	Cancelled  int
	Files      []FileRecord
}

// Elapsed is the wall time of the run.
func (r Run) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages the ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the ledger at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Connection-scoped pragmas (foreign_keys) must hold for every query.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the ledger file.
func (s *Store) Path() string {
	return s.path
}

// Record inserts run and its file records in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, tier, engine, language, device, job_dir,
            total, succeeded, failed, cancelled
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Tier,
		run.Engine,
		run.Language,
		nullableString(run.Device),
		nullableString(run.JobDir),
		run.Total,
		run.Succeeded,
		run.Failed,
		run.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, file := range run.Files {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_files (
                run_id, position, name, status, error_kind, error_message,
                audio_seconds, elapsed_ms, srt_path
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			i,
			file.Name,
			file.Status,
			nullableString(file.ErrorKind),
			nullableString(file.ErrorMessage),
			file.AudioSeconds,
			file.Elapsed.Milliseconds(),
			nullableString(file.SRTPath),
		)
		if err != nil {
			return fmt.Errorf("insert file %q: %w", file.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = "id, started_at, finished_at, tier, engine, language, device, job_dir, total, succeeded, failed, cancelled"

// ListRuns returns the most recent runs first, without file records. A limit
// of zero or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one run with its files. It returns nil when id is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, status, error_kind, error_message, audio_seconds, elapsed_ms, srt_path
         FROM run_files WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			file         FileRecord
			errorKind    sql.NullString
			errorMessage sql.NullString
			elapsedMS    int64
			srtPath      sql.NullString
		)
		if err := rows.Scan(&file.Name, &file.Status, &errorKind, &errorMessage, &file.AudioSeconds, &elapsedMS, &srtPath); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		file.ErrorKind = errorKind.String
		file.ErrorMessage = errorMessage.String
		file.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		file.SRTPath = srtPath.String
		run.Files = append(run.Files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run files: %w", err)
	}
	return &run, nil
}

// Prune removes runs started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		startedRaw string
		finishRaw  string
		device     sql.NullString
		jobDir     sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&startedRaw,
		&finishRaw,
		&run.Tier,
		&run.Engine,
		&run.Language,
		&device,
		&jobDir,
		&run.Total,
		&run.Succeeded,
		&run.Failed,
		&run.Cancelled,
	); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishRaw)
	run.Device = device.String
	run.JobDir = jobDir.String
	return run, nil
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
