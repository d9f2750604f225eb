package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"batchscribe/internal/tier"
)

const (
	appName          = "batchscribe"
	appDescription   = "Transcribes audio files into text and SRT subtitles with Whisper models"
	selectorArgument = "<model>"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// usageError reports bad positional arguments. main prints msg (if any)
// followed by the command's usage text.
type usageError struct {
	msg string
	cmd *cobra.Command
}

func (e *usageError) Error() string {
	if e.msg == "" {
		return "invalid arguments"
	}
	return e.msg
}

func newRootCommand() *cobra.Command {
	flags := &commandFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           appName + " " + selectorArgument,
		Short:         appDescription,
		Long:          rootLongHelp(),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          selectorArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx, args[0])
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	pf.StringVarP(&flags.input, "input", "i", "", "Input directory (overrides paths.input_dir)")
	pf.StringVar(&flags.language, "language", "", "Transcription language (overrides transcription.language)")
	pf.StringVar(&flags.engine, "engine", "", "Engine backend: whispercpp or openai")
	rootCmd.Flags().BoolVar(&flags.noTitle, "no-title", false, "Do not update the terminal title with progress")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newEstimateCommand())
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}

// selectorArgs validates that args[0] is a tier selector and that exactly
// want arguments were given. It runs before configuration is loaded.
func selectorArgs(want int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != want {
			return &usageError{cmd: cmd}
		}
		if _, err := tier.Parse(args[0]); err != nil {
			return &usageError{msg: tier.InvalidSelectorMessage, cmd: cmd}
		}
		return nil
	}
}

func rootLongHelp() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - %s\n\n", appName, version, appDescription)
	b.WriteString("Every audio file in the input directory is transcribed in name order into a new\n")
	b.WriteString("timestamped job folder, together with the original recording.\n\n")
	fmt.Fprintf(&b, "Where %s is a number from 1 to 5 to select the Whisper model:\n ", selectorArgument)
	for _, t := range tier.All() {
		fmt.Fprintf(&b, " %s. %s", t.Selector(), t)
		if t != tier.Large {
			b.WriteString(",")
		}
	}
	b.WriteString("\n")
	return b.String()
}
