package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"batchscribe/internal/output"
	"batchscribe/internal/tier"
)

func newEstimateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate " + selectorArgument + " <length>",
		Short: "Estimate transcription time for a recording of the given length",
		Long: "Prints the estimated transcription time for a recording with the selected model.\n" +
			"<length> is whole seconds (95), a duration (1m35s), or a clock value (1:35).",
		Args:        selectorArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tier.Parse(args[0])
			if err != nil {
				return err
			}
			seconds, err := parseAudioLength(args[1])
			if err != nil {
				return &usageError{msg: err.Error(), cmd: cmd}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Estimated Transcription Time: %s\n",
				output.FormatDuration(tier.Estimate(seconds, t)))
			return nil
		},
	}
}
