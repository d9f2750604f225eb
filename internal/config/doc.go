// Package config loads, normalizes, and validates batchscribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and BATCHSCRIBE_INPUT_DIR. The Config type centralizes every
// knob the CLI and the run orchestrator need, so the input directory, engine
// backend, and log destinations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical language tag, and clear validation errors.
package config
