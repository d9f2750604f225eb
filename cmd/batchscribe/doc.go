// Package main hosts the batchscribe CLI entrypoint and command graph.
//
// The root command takes a model selector and runs one batch over the input
// directory. Subcommands cover configuration scaffolding, dependency status,
// run history, and duration estimates. Configuration resolution and logger
// setup are centralized in commandContext so commands stay declarative.
package main
