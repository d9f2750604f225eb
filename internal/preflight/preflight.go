package preflight

import (
	"context"

	"batchscribe/internal/config"
	"batchscribe/internal/tier"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks applicable to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	switch cfg.Transcription.Engine {
	case config.EngineWhisperCPP:
		for _, t := range tier.All() {
			results = append(results, CheckModelFile(cfg.WhisperCPP.ModelDir, t))
		}
	case config.EngineOpenAI:
		results = append(results, CheckOpenAI(ctx, cfg.OpenAI))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
