// Package runner drives one batch: it takes the input-directory lock, lists
// eligible recordings once, loads the engine, allocates the job directory,
// and then ingests, transcribes, and commits each file in name order.
//
// Only configuration and allocation failures abort the run. Every other
// failure is recorded against its file, the file's PCM artifact is removed,
// and the loop moves on.
package runner
