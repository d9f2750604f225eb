package asr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"batchscribe/internal/config"
	"batchscribe/internal/services"
	"batchscribe/internal/tier"
)

// NewLoader returns the Loader for the configured engine backend.
func NewLoader(cfg *config.Config, logger *slog.Logger) Loader {
	return LoaderFunc(func(ctx context.Context, t tier.Tier, device Device) (Engine, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch cfg.Transcription.Engine {
		case config.EngineWhisperCPP:
			return NewWhisperCPP(WhisperCPPConfig{
				Binary:   cfg.WhisperCPP.Binary,
				ModelDir: cfg.WhisperCPP.ModelDir,
				Threads:  cfg.WhisperCPP.Threads,
			}, t, device, logger)
		case config.EngineOpenAI:
			engine, err := NewOpenAI(OpenAIConfig{
				BaseURL: cfg.OpenAI.BaseURL,
				APIKey:  cfg.OpenAI.APIKey,
				Model:   cfg.OpenAI.Model,
				Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
			}, logger)
			if err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "engine", "load openai backend", "", err)
			}
			return engine, nil
		default:
			return nil, services.Wrap(services.ErrConfiguration, "engine", "select backend", fmt.Sprintf("unknown engine %q", cfg.Transcription.Engine), nil)
		}
	})
}
