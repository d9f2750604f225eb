package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"batchscribe/internal/services"
)

func TestEligible(t *testing.T) {
	tests := map[string]bool{
		"a.mp3":        true,
		"B.WAV":        true,
		"c.Flac":       true,
		"d.ogg":        true,
		"e.aac":        true,
		"f.m4a":        false,
		"notes.txt":    false,
		"mp3":          false,
		".batchscribe": false,
	}
	for name, want := range tests {
		if got := Eligible(name); got != want {
			t.Fatalf("Eligible(%q) = %v, want %v", name, got, want)
		}
	}
	if got := Extensions(); !reflect.DeepEqual(got, []string{".aac", ".flac", ".mp3", ".ogg", ".wav"}) {
		t.Fatalf("unexpected extensions %v", got)
	}
}

func TestArtifactPathNeverEqualsInput(t *testing.T) {
	for _, in := range []string{"/in/talk.wav", "/in/talk.mp3", "/in/talk.16k.wav"} {
		got := ArtifactPath(in)
		if got == in {
			t.Fatalf("ArtifactPath(%q) collides with input", in)
		}
		if filepath.Dir(got) != filepath.Dir(in) {
			t.Fatalf("artifact should live next to input: %s", got)
		}
	}
	if got := ArtifactPath("/in/talk.wav"); got != "/in/talk.16k.wav" {
		t.Fatalf("unexpected artifact path %q", got)
	}
}

func TestWriteAndLoadPCMRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := make([]float32, SampleRate/10)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
	}
	if err := WritePCM(path, samples, SampleRate); err != nil {
		t.Fatalf("WritePCM: %v", err)
	}
	got, rate, err := LoadPCM(path)
	if err != nil {
		t.Fatalf("LoadPCM: %v", err)
	}
	if rate != SampleRate || len(got) != len(samples) {
		t.Fatalf("unexpected shape: rate=%d len=%d", rate, len(got))
	}
	for i := range samples {
		if math.Abs(float64(got[i]-samples[i])) > 1.0/16384 {
			t.Fatalf("sample %d drifted: got %v want %v", i, got[i], samples[i])
		}
	}
}

func TestLoadPCMRejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadPCM(path); err == nil {
		t.Fatal("expected error for invalid wav")
	}
}

type fakeDecoder struct {
	samples int
	rate    int
	err     error
	calls   [][2]string
}

func (f *fakeDecoder) Decode(_ context.Context, src, dst string) error {
	f.calls = append(f.calls, [2]string{src, dst})
	if f.err != nil {
		// Leave a partial artifact behind to prove cleanup.
		_ = os.WriteFile(dst, []byte("partial"), 0o644)
		return f.err
	}
	return WritePCM(dst, make([]float32, f.samples), f.rate)
}

func writeInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("original bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestSuccess(t *testing.T) {
	input := writeInput(t, "lecture.mp3")
	dec := &fakeDecoder{samples: SampleRate*95 + 123, rate: SampleRate}
	src, err := NewIngestor(dec, nil).Ingest(context.Background(), input)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if src.DurationSeconds != 95 {
		t.Fatalf("expected truncated duration 95, got %d", src.DurationSeconds)
	}
	if src.PCMPath != ArtifactPath(input) || src.OriginalPath != input || src.Name() != "lecture.mp3" {
		t.Fatalf("unexpected source paths %+v", src)
	}
	if len(src.Samples) != SampleRate*95+123 {
		t.Fatalf("unexpected sample count %d", len(src.Samples))
	}
	if data, _ := os.ReadFile(input); string(data) != "original bytes" {
		t.Fatal("input must not be modified")
	}
}

func TestIngestWavInputKeepsOriginal(t *testing.T) {
	input := writeInput(t, "memo.wav")
	dec := &fakeDecoder{samples: SampleRate, rate: SampleRate}
	src, err := NewIngestor(dec, nil).Ingest(context.Background(), input)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if src.PCMPath == input {
		t.Fatal("artifact must not overwrite the .wav input")
	}
	if data, _ := os.ReadFile(input); string(data) != "original bytes" {
		t.Fatal("input must not be modified")
	}
}

func TestIngestDecodeFailureRemovesArtifact(t *testing.T) {
	input := writeInput(t, "broken.ogg")
	dec := &fakeDecoder{err: errors.New("corrupt stream")}
	_, err := NewIngestor(dec, nil).Ingest(context.Background(), input)
	if !errors.Is(err, services.ErrIngestion) {
		t.Fatalf("expected ingestion error, got %v", err)
	}
	if _, statErr := os.Stat(ArtifactPath(input)); !os.IsNotExist(statErr) {
		t.Fatal("partial artifact should be removed")
	}
	if _, statErr := os.Stat(input); statErr != nil {
		t.Fatal("input must remain in place")
	}
}

func TestIngestRejectsWrongRate(t *testing.T) {
	input := writeInput(t, "hifi.flac")
	dec := &fakeDecoder{samples: 44100, rate: 44100}
	_, err := NewIngestor(dec, nil).Ingest(context.Background(), input)
	if !errors.Is(err, services.ErrIngestion) {
		t.Fatalf("expected ingestion error, got %v", err)
	}
	if _, statErr := os.Stat(ArtifactPath(input)); !os.IsNotExist(statErr) {
		t.Fatal("artifact should be removed")
	}
}

func TestIngestRejectsIneligible(t *testing.T) {
	input := writeInput(t, "notes.txt")
	dec := &fakeDecoder{}
	if _, err := NewIngestor(dec, nil).Ingest(context.Background(), input); !errors.Is(err, services.ErrIngestion) {
		t.Fatalf("expected ingestion error, got %v", err)
	}
	if len(dec.calls) != 0 {
		t.Fatal("decoder should not run for ineligible files")
	}
}

func TestFFmpegDecoderArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	dec := NewFFmpegDecoder("").WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})
	if err := dec.Decode(context.Background(), "/in/a.mp3", "/in/a.16k.wav"); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("unexpected binary %q", gotName)
	}
	want := []string{"-y", "-hide_banner", "-loglevel", "error", "-nostdin", "-i", "/in/a.mp3", "-vn", "-sn", "-dn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le", "/in/a.16k.wav"}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", gotArgs, want)
	}
}

func TestFFmpegDecoderWrapsErrors(t *testing.T) {
	dec := NewFFmpegDecoder("ffmpeg").WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	if err := dec.Decode(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error")
	}
}
