package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcmScale = 32768.0

// LoadPCM reads a mono 16-bit WAV and returns float32 samples in [-1, 1) with
// the file's sample rate.
func LoadPCM(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}
	if dec.NumChans != 1 {
		return nil, 0, fmt.Errorf("%s: expected mono audio, got %d channels", path, dec.NumChans)
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("%s: expected 16-bit samples, got %d", path, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: read pcm: %w", path, err)
	}
	if buf == nil {
		return nil, 0, errors.New("empty pcm buffer")
	}
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / pcmScale
	}
	return samples, int(dec.SampleRate), nil
}

// WritePCM writes samples as a mono 16-bit WAV at sampleRate. Values outside
// [-1, 1] are clipped.
func WritePCM(path string, samples []float32, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	data := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s) * pcmScale
		switch {
		case v > pcmScale-1:
			v = pcmScale - 1
		case v < -pcmScale:
			v = -pcmScale
		}
		data[i] = int(v)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
