package asr

import (
	"context"
	"fmt"

	"batchscribe/internal/tier"
)

// InputSamples is the fixed 30 s window (at 16 kHz) recognizers consume.
const InputSamples = 480000

// TaskTranscribe requests same-language transcription rather than translation.
const TaskTranscribe = "transcribe"

// Chunk is one window of audio handed to an engine.
type Chunk struct {
	Index      int
	Start      int
	End        int
	Samples    []float32
	SampleRate int
}

// Options carries the decoding parameters fixed for a run.
type Options struct {
	Language    string
	Task        string
	Temperature float64
	// NoFallback disables temperature fallback on low-confidence decodes.
	NoFallback bool
	// MelBins is a model hint; backends that pick features themselves ignore it.
	MelBins int
}

// DefaultOptions returns the decoding options used for every chunk of a run.
func DefaultOptions(language string, t tier.Tier) Options {
	return Options{
		Language:    language,
		Task:        TaskTranscribe,
		Temperature: 0,
		NoFallback:  true,
		MelBins:     t.MelBins(),
	}
}

// Engine recognizes speech in a chunk. Implementations need not be safe for
// concurrent use.
type Engine interface {
	Transcribe(ctx context.Context, chunk Chunk, opts Options) (string, error)
	Name() string
	Close() error
}

// Loader creates the engine for a run.
type Loader interface {
	Load(ctx context.Context, t tier.Tier, device Device) (Engine, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, t tier.Tier, device Device) (Engine, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, t tier.Tier, device Device) (Engine, error) {
	return f(ctx, t, device)
}

// PadOrTrim returns exactly n samples: samples beyond n are dropped and a
// short slice is zero-padded. The input is never modified.
func PadOrTrim(samples []float32, n int) []float32 {
	if n <= 0 {
		return nil
	}
	out := make([]float32, n)
	copy(out, samples)
	return out
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d [%ds, %ds)", c.Index, c.Start, c.End)
}
