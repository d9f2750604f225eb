package testsupport

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"batchscribe/internal/audio"
)

// SecondsDecoder is an audio.Decoder for files written by WriteRecording: it
// emits silence of the recorded length. Content that is not a number fails
// decoding, like a corrupt recording.
type SecondsDecoder struct{}

// Decode implements audio.Decoder.
func (SecondsDecoder) Decode(_ context.Context, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return errors.New("invalid data found when processing input")
	}
	return audio.WritePCM(dst, make([]float32, seconds*audio.SampleRate), audio.SampleRate)
}
