package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"batchscribe/internal/asr"
	"batchscribe/internal/audio"
	"batchscribe/internal/logging"
	"batchscribe/internal/services"
	"batchscribe/internal/transcript"
)

// ChunkSeconds is the window length.
const ChunkSeconds = 30

// Windows splits [0, total) into consecutive half-open windows of at most
// size seconds. It returns ceil(total/size) chunks, none for total <= 0.
func Windows(total, size int) []transcript.Chunk {
	if total <= 0 || size <= 0 {
		return nil
	}
	out := make([]transcript.Chunk, 0, (total+size-1)/size)
	for start, idx := 0, 0; start < total; start, idx = start+size, idx+1 {
		out = append(out, transcript.Chunk{Index: idx, Start: start, End: min(start+size, total)})
	}
	return out
}

// ChunkError identifies the chunk whose recognition failed.
type ChunkError struct {
	Chunk transcript.Chunk
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Chunk, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// ChunkFunc observes each chunk's text as soon as it is recognized.
type ChunkFunc func(chunk transcript.Chunk, text string)

// Scheduler runs the engine over every window of a source.
type Scheduler struct {
	engine  asr.Engine
	options asr.Options
	size    int
	onChunk ChunkFunc
	logger  *slog.Logger
}

// NewScheduler binds an engine and the run's fixed decoding options.
func NewScheduler(engine asr.Engine, opts asr.Options, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:  engine,
		options: opts,
		size:    ChunkSeconds,
		logger:  logging.NewComponentLogger(logger, "scheduler"),
	}
}

// OnChunk registers a callback invoked after each chunk is assembled.
func (s *Scheduler) OnChunk(fn ChunkFunc) *Scheduler {
	s.onChunk = fn
	return s
}

// Run recognizes every window of src in order and appends the results to asm.
// On failure the returned error wraps services.ErrInference and a *ChunkError;
// cancellation returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context, src audio.Source, asm *transcript.Assembler) error {
	if s.engine == nil {
		return services.Wrap(services.ErrInference, "inference", "run scheduler", src.Name(), errors.New("no engine loaded"))
	}
	logger := logging.WithContext(ctx, s.logger)
	windows := Windows(src.DurationSeconds, s.size)
	logger.Debug("chunk plan", logging.Int("chunks", len(windows)), logging.Int("duration_seconds", src.DurationSeconds))

	for _, window := range windows {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := asr.Chunk{
			Index:      window.Index,
			Start:      window.Start,
			End:        window.End,
			Samples:    sliceSamples(src.Samples, src.SampleRate, window),
			SampleRate: src.SampleRate,
		}
		started := time.Now()
		text, err := s.engine.Transcribe(ctx, chunk, s.options)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return services.Wrap(services.ErrInference, "inference", "transcribe chunk", src.Name(), &ChunkError{Chunk: window, Err: err})
		}
		if err := asm.Add(window, text); err != nil {
			return services.Wrap(services.ErrInference, "inference", "assemble chunk", src.Name(), &ChunkError{Chunk: window, Err: err})
		}
		logger.Debug("chunk transcribed",
			logging.Int("chunk_index", window.Index),
			logging.Int("chunk_start", window.Start),
			logging.Int("chunk_end", window.End),
			logging.Duration("chunk_duration", time.Since(started)),
		)
		if s.onChunk != nil {
			s.onChunk(window, strings.TrimSpace(text))
		}
	}
	return nil
}

// sliceSamples returns samples [start*rate, end*rate), clamped to the buffer.
func sliceSamples(samples []float32, rate int, c transcript.Chunk) []float32 {
	lo := c.Start * rate
	hi := c.End * rate
	if lo > len(samples) {
		lo = len(samples)
	}
	if hi > len(samples) {
		hi = len(samples)
	}
	if lo > hi {
		lo = hi
	}
	return samples[lo:hi]
}
