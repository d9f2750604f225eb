package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"batchscribe/internal/asr"
	"batchscribe/internal/audio"
	"batchscribe/internal/config"
	"batchscribe/internal/history"
	"batchscribe/internal/jobdir"
	"batchscribe/internal/logging"
	"batchscribe/internal/output"
	"batchscribe/internal/preflight"
	"batchscribe/internal/progress"
	"batchscribe/internal/services"
	"batchscribe/internal/tier"
	"batchscribe/internal/transcribe"
	"batchscribe/internal/transcript"
)

// LockFileName is created in the input directory for the duration of a run.
const LockFileName = ".batchscribe.lock"

// Ingester turns an input path into decoded samples.
type Ingester interface {
	Ingest(ctx context.Context, path string) (audio.Source, error)
}

// Recorder persists a finished run.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Runner executes batches. Construct with New.
type Runner struct {
	cfg       *config.Config
	tier      tier.Tier
	logger    *slog.Logger
	ingester  Ingester
	loader    asr.Loader
	probe     asr.ProbeFunc
	allocator *jobdir.Allocator
	writer    *output.Writer
	observer  progress.Observer
	recorder  Recorder
	now       func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithIngester replaces the ffmpeg-backed ingester.
func WithIngester(i Ingester) Option { return func(r *Runner) { r.ingester = i } }

// WithLoader replaces the config-selected engine loader.
func WithLoader(l asr.Loader) Option { return func(r *Runner) { r.loader = l } }

// WithProbe replaces the nvidia-smi device probe.
func WithProbe(p asr.ProbeFunc) Option { return func(r *Runner) { r.probe = p } }

// WithObserver sets the progress observer.
func WithObserver(o progress.Observer) Option { return func(r *Runner) { r.observer = o } }

// WithRecorder sets where run history is written.
func WithRecorder(rec Recorder) Option { return func(r *Runner) { r.recorder = rec } }

// WithClock overrides the wall clock used for timings and job names.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
		r.allocator.Now = now
	}
}

// New builds a runner for cfg at tier t.
func New(cfg *config.Config, t tier.Tier, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		tier:      t,
		logger:    logging.NewComponentLogger(logger, "runner"),
		allocator: jobdir.NewAllocator(logger),
		writer:    output.NewWriter(logger),
		now:       time.Now,
	}
	r.ingester = audio.NewIngestor(audio.NewFFmpegDecoder(cfg.FFmpegBinary()), logger)
	r.loader = asr.NewLoader(cfg, logger)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every eligible file in the input directory. The returned
// error is non-nil only for run-fatal conditions (configuration, allocation,
// or cancellation before the file loop); per-file failures are in Summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	started := r.now()
	summary := Summary{
		RunID:     uuid.NewString(),
		Tier:      r.tier.String(),
		Engine:    r.cfg.Transcription.Engine,
		StartedAt: started,
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	inputDir := r.cfg.Paths.InputDir
	if check := preflight.CheckDirectoryAccess("Input directory", inputDir); !check.Passed {
		return summary, services.Wrap(services.ErrConfiguration, "runner", "check input directory", check.Detail, nil)
	}

	lock := flock.New(filepath.Join(inputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "runner", "acquire run lock", inputDir, err)
	}
	if !locked {
		return summary, services.Wrap(services.ErrConfiguration, "runner", "acquire run lock", inputDir, errors.New("another batchscribe run is using this directory"))
	}
	defer func() { _ = lock.Unlock() }()

	files, err := Eligible(inputDir)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "runner", "enumerate inputs", inputDir, err)
	}
	summary.Total = len(files)
	logger.Info("run starting",
		logging.String("input_dir", inputDir),
		logging.Int("eligible_files", len(files)),
		logging.String("model", r.tier.String()),
		logging.String("engine", summary.Engine),
		logging.String(logging.FieldEventType, "run_start"),
	)
	if len(files) == 0 {
		logger.Info("no eligible audio files", logging.String(logging.FieldEventType, "run_empty"))
		return r.finish(ctx, summary), nil
	}

	device, err := asr.ProbeDevice(ctx, r.cfg.Transcription.Device, r.probe)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "engine", "probe device", r.cfg.Transcription.Device, err)
	}
	summary.Device = device.Name
	logger.Info(device.Describe(),
		logging.Bool("cuda", device.CUDA),
		logging.String(logging.FieldEventType, "device_selected"),
	)

	engine, err := r.loader.Load(ctx, r.tier, device)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
		if !errors.Is(err, services.ErrConfiguration) {
			err = services.Wrap(services.ErrConfiguration, "engine", "load model", r.tier.String(), err)
		}
		return summary, err
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			logger.Debug("engine close failed", logging.Error(closeErr))
		}
	}()
	logger.Info("engine loaded", logging.String("engine", engine.Name()))

	job, err := r.allocator.Allocate(inputDir)
	if err != nil {
		return summary, err
	}
	summary.Job = job

	opts := asr.DefaultOptions(r.cfg.Transcription.Language, r.tier)
	for i, path := range files {
		if ctx.Err() != nil {
			for _, rest := range files[i:] {
				summary.Files = append(summary.Files, FileOutcome{Name: filepath.Base(rest), Status: history.StatusCancelled, Err: ctx.Err()})
			}
			break
		}
		outcome := r.processFile(ctx, job, engine, opts, path)
		summary.Files = append(summary.Files, outcome)
		if r.observer != nil {
			r.observer.OnProgress(r.now().Sub(started), i+1, len(files))
		}
	}
	return r.finish(ctx, summary), nil
}

func (r *Runner) processFile(ctx context.Context, job jobdir.Job, engine asr.Engine, opts asr.Options, path string) (outcome FileOutcome) {
	name := filepath.Base(path)
	ctx = services.WithFile(ctx, name)
	logger := logging.WithContext(ctx, r.logger)
	outcome.Name = name
	fileStart := r.now()
	defer func() { outcome.Elapsed = r.now().Sub(fileStart) }()

	src, err := r.ingester.Ingest(services.WithStage(ctx, "ingestion"), path)
	if err != nil {
		return r.fail(ctx, outcome, err, fileStart)
	}
	outcome.AudioSeconds = src.DurationSeconds

	outcome.Estimated = tier.Estimate(src.DurationSeconds, r.tier)
	logger.Info("Estimated Transcription Time",
		logging.String("estimate", output.FormatDuration(outcome.Estimated)),
		logging.Int("duration_seconds", src.DurationSeconds),
		logging.String(logging.FieldEventType, "estimate"),
	)

	asm := transcript.NewAssembler()
	scheduler := transcribe.NewScheduler(engine, opts, r.logger).OnChunk(func(chunk transcript.Chunk, text string) {
		logger.Info(fmt.Sprintf(">> %s <<", text),
			logging.Int("chunk_index", chunk.Index),
			logging.String(logging.FieldEventType, "chunk_text"),
		)
		if c, ok := r.observer.(progress.ChunkObserver); ok {
			c.OnChunk(name, text)
		}
	})
	inferStart := r.now()
	if err := scheduler.Run(services.WithStage(ctx, "inference"), src, asm); err != nil {
		audio.RemoveArtifact(src)
		return r.fail(ctx, outcome, err, fileStart)
	}
	actual := r.now().Sub(inferStart)

	result, err := r.writer.Commit(services.WithStage(ctx, "output"), job, src, asm, output.Timings{
		Estimated: outcome.Estimated,
		Actual:    actual,
	})
	if err != nil {
		audio.RemoveArtifact(src)
		return r.fail(ctx, outcome, err, fileStart)
	}
	outcome.SRTPath = result.SRTPath
	outcome.TextPath = result.TextPath
	outcome.Status = history.StatusTranscribed
	if result.RelocationErr != nil {
		outcome.Status = history.StatusRelocationFailed
		outcome.RelocationErr = result.RelocationErr
		logging.WarnWithContext(logger, "input left in place", "relocation_failed",
			logging.Error(result.RelocationErr),
			logging.String(logging.FieldErrorHint, "move the recording out of the input directory before the next run"),
			logging.String(logging.FieldImpact, "transcripts are complete; the recording will be transcribed again next run"),
		)
	}
	logger.Info("file transcribed",
		logging.String("srt", result.SRTPath),
		logging.String("txt", result.TextPath),
		logging.Duration("actual", actual),
		logging.String(logging.FieldEventType, "file_complete"),
	)
	return outcome
}

func (r *Runner) fail(ctx context.Context, outcome FileOutcome, err error, fileStart time.Time) FileOutcome {
	logger := logging.WithContext(ctx, r.logger)
	outcome.Err = err
	outcome.Status = history.StatusFailed
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		outcome.Status = history.StatusCancelled
		logger.Info("file cancelled", logging.String(logging.FieldEventType, "file_cancelled"))
		return outcome
	}
	logging.ErrorWithContext(logger, "file failed", "file_failed",
		logging.Error(err),
		logging.Duration("after", r.now().Sub(fileStart)),
		logging.String(logging.FieldErrorHint, hintFor(err)),
		logging.String(logging.FieldImpact, "no outputs written; recording left in the input directory"),
	)
	return outcome
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrIngestion):
		return "check that ffmpeg can decode the file"
	case errors.Is(err, services.ErrInference):
		return "set logging.level = \"debug\" to see the failing chunk"
	case errors.Is(err, services.ErrOutput):
		return "check free space and permissions in the job directory"
	default:
		return "check logs for details"
	}
}

func (r *Runner) finish(ctx context.Context, summary Summary) Summary {
	summary.Elapsed = r.now().Sub(summary.StartedAt)
	logger := logging.WithContext(ctx, r.logger)
	if r.observer != nil {
		r.observer.OnFinish(summary.Elapsed)
	}
	succeeded, failed, cancelled := summary.Counts()
	logger.Info("run complete",
		logging.Int("succeeded", succeeded),
		logging.Int("failed", failed),
		logging.Int("cancelled", cancelled),
		logging.String("elapsed", output.FormatDuration(summary.Elapsed)),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	if r.recorder != nil {
		// Record even when ctx is cancelled so an interrupted run still shows up.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.recorder.Record(recordCtx, summary.HistoryRun(r.cfg.Transcription.Language)); err != nil {
			logging.WarnWithContext(logger, "run history not recorded", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will be missing from `batchscribe history`"),
			)
		}
	}
	return summary
}
