// Package transcript accumulates per-chunk recognition results into the two
// artifacts a run produces for each input: a newline-joined plain transcript
// and an ordered list of subtitle entries rendered as SRT.
//
// The Assembler is append-only and refuses chunks that arrive out of order or
// leave a gap, so subtitle index i always covers chunk i-1.
package transcript
