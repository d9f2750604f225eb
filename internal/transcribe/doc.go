// Package transcribe drives one ingested recording through the engine: it
// splits the samples into contiguous 30-second windows, recognizes each window
// in order, and feeds the results to a transcript.Assembler.
//
// Chunks run strictly one after another on the caller's goroutine. The first
// failed chunk abandons the rest of the file.
package transcribe
