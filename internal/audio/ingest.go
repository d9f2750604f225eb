package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"batchscribe/internal/logging"
	"batchscribe/internal/services"
)

// Ingestor produces a Source from an input recording.
type Ingestor struct {
	decoder Decoder
	logger  *slog.Logger
}

// NewIngestor wires a decoder and logger.
func NewIngestor(decoder Decoder, logger *slog.Logger) *Ingestor {
	return &Ingestor{decoder: decoder, logger: logging.NewComponentLogger(logger, "audio")}
}

// Ingest decodes path into a canonical PCM artifact next to it and loads the
// samples. The original file is never modified. On failure the artifact is
// removed and the error wraps services.ErrIngestion.
func (i *Ingestor) Ingest(ctx context.Context, path string) (Source, error) {
	name := filepath.Base(path)
	if !Eligible(name) {
		return Source{}, services.Wrap(services.ErrIngestion, "ingestion", "check extension", name, errors.New("unsupported audio extension"))
	}
	if i.decoder == nil {
		return Source{}, services.Wrap(services.ErrIngestion, "ingestion", "decode", name, errors.New("no decoder configured"))
	}
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, services.Wrap(services.ErrIngestion, "ingestion", "stat input", name, err)
	}
	if !info.Mode().IsRegular() {
		return Source{}, services.Wrap(services.ErrIngestion, "ingestion", "stat input", name, errors.New("not a regular file"))
	}

	artifact := ArtifactPath(path)
	logger := logging.WithContext(ctx, i.logger)
	logger.Debug("decoding audio",
		logging.String("input", path),
		logging.String("artifact", artifact),
		logging.Int64("input_bytes", info.Size()),
	)

	if err := i.decoder.Decode(ctx, path, artifact); err != nil {
		removeArtifact(artifact)
		return Source{}, services.Wrap(services.ErrIngestion, "ingestion", "decode", name, err)
	}

	samples, rate, err := LoadPCM(artifact)
	if err != nil {
		removeArtifact(artifact)
		return Source{}, services.Wrap(services.ErrIngestion, "ingestion", "load pcm", name, err)
	}
	if rate != SampleRate {
		removeArtifact(artifact)
		return Source{}, services.Wrap(services.ErrIngestion, "ingestion", "load pcm", name,
			fmt.Errorf("expected %d Hz, decoder produced %d Hz", SampleRate, rate))
	}

	src := Source{
		OriginalPath:    path,
		PCMPath:         artifact,
		SampleRate:      rate,
		Samples:         samples,
		DurationSeconds: len(samples) / rate,
	}
	logger.Info("audio ingested",
		logging.Int("duration_seconds", src.DurationSeconds),
		logging.Int("samples", len(samples)),
		logging.String(logging.FieldEventType, "audio_ingested"),
	)
	return src, nil
}

// RemoveArtifact deletes the PCM artifact of src if it still exists.
func RemoveArtifact(src Source) {
	if src.PCMPath != "" {
		removeArtifact(src.PCMPath)
	}
}

func removeArtifact(path string) {
	_ = os.Remove(path)
}
