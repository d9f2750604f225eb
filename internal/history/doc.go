// Package history keeps a SQLite ledger of past runs and the outcome of every
// file each run touched. It backs the `history` command and is written once
// per run after the file loop finishes.
package history
