// Package logs reads the JSON log file written alongside console output.
//
// Tail returns the last matching records and an offset from which later
// calls continue, which is how `batchscribe logs --follow` streams new
// records. Entries are filtered by run, file, and minimum level.
package logs
