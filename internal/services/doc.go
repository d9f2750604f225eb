// Package services defines shared utilities consumed by the transcription
// pipeline stages.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, input file names, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     run-fatal (configuration, allocation) or file-scoped (ingestion,
//     inference, output, relocation).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
