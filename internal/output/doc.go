// Package output persists a finished transcription into the run's job
// directory and only then relocates the input recording and its PCM artifact
// beside it.
//
// Both transcript files are written atomically. A failed write removes
// whatever was already written for that input and leaves the input in place.
// A failed relocation is reported separately: the transcripts are valid and
// stay where they are.
package output
