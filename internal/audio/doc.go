// Package audio turns an input recording into the canonical PCM form the
// transcription engines consume: mono, 16 kHz, 16-bit WAV on disk and float32
// samples in memory.
//
// Eligibility is decided by file extension alone. Decoding shells out to
// ffmpeg through an injectable command runner; the resulting WAV is read back
// with go-audio/wav and validated before samples are handed to the scheduler.
package audio
