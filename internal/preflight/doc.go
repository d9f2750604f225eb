// Package preflight provides readiness checks for the directories, models,
// and services batchscribe depends on.
//
// These checks run in two contexts:
//   - The runner calls CheckDirectoryAccess on the input directory before it
//     takes the run lock, so a missing or read-only directory fails fast.
//   - The CLI "batchscribe status" command calls RunAll to display health.
//
// Engine-specific checks are skipped for the engine that is not configured.
package preflight
