package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command tree and maps the outcome to an exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "Interrupted; unfinished recordings were left in the input directory.")
		return 130
	}
	var usage *usageError
	if errors.As(err, &usage) {
		if usage.msg != "" {
			fmt.Fprintf(stderr, "Error: %s\n\n", usage.msg)
		}
		if usage.cmd.Long != "" {
			fmt.Fprintln(stderr, usage.cmd.Long)
		}
		fmt.Fprint(stderr, usage.cmd.UsageString())
		return 1
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
