package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"batchscribe/internal/asr"
	"batchscribe/internal/deps"
	"batchscribe/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dependency, directory, model, and device readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines,
				renderStatusLine("Config file", statusInfo, ctx.configPath, colorize),
				renderStatusLine("Engine", statusInfo, cfg.Transcription.Engine, colorize),
				renderStatusLine("Language", statusInfo, cfg.LanguageName(), colorize),
				renderStatusLine("History", statusInfo, yesNo(cfg.History.Enabled), colorize),
				renderStatusLine("Notifications", statusInfo, yesNo(cfg.Notifications.NtfyTopic != ""), colorize),
			)

			device, err := asr.ProbeDevice(cmd.Context(), cfg.Transcription.Device, nil)
			if err != nil {
				lines = append(lines, renderStatusLine("Device", statusError, err.Error(), colorize))
			} else {
				lines = append(lines, renderStatusLine("Device", statusInfo, device.Describe(), colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(deps.CheckBinaries(deps.Requirements(cfg)), colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Preflight", colorize)...)
			lines = append(lines, preflightLines(preflight.RunAll(cmd.Context(), cfg), colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}
