package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Decoder converts src into a canonical PCM WAV at dst.
type Decoder interface {
	Decode(ctx context.Context, src, dst string) error
}

// FFmpegDecoder decodes and resamples with ffmpeg.
type FFmpegDecoder struct {
	Binary string
	run    CommandRunner
}

// NewFFmpegDecoder returns a decoder that invokes binary (default "ffmpeg").
func NewFFmpegDecoder(binary string) *FFmpegDecoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegDecoder{Binary: binary, run: defaultCommandRunner}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *FFmpegDecoder) WithCommandRunner(r CommandRunner) *FFmpegDecoder {
	d.run = r
	return d
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, src, dst string) error {
	run := d.run
	if run == nil {
		run = defaultCommandRunner
	}
	if err := run(ctx, d.Binary, buildDecodeArgs(src, dst)...); err != nil {
		return fmt.Errorf("ffmpeg decode: %w", err)
	}
	return nil
}

func buildDecodeArgs(src, dst string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", src,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-c:a", "pcm_s16le",
		dst,
	}
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
