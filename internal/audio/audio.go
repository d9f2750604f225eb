package audio

import (
	"path/filepath"
	"sort"
	"strings"
)

// SampleRate is the canonical PCM rate in Hz.
const SampleRate = 16000

// ArtifactSuffix is appended to an input's stem to name its PCM artifact.
const ArtifactSuffix = ".16k.wav"

var eligibleExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
	".aac":  {},
}

// Eligible reports whether name carries an allow-listed audio extension.
// Matching is case-insensitive.
func Eligible(name string) bool {
	_, ok := eligibleExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions returns the allow-listed extensions in sorted order.
func Extensions() []string {
	out := make([]string, 0, len(eligibleExtensions))
	for ext := range eligibleExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArtifactPath returns where the canonical PCM artifact for input is written.
// It never equals input, including for .wav inputs.
func ArtifactPath(input string) string {
	return filepath.Join(filepath.Dir(input), Stem(input)+ArtifactSuffix)
}

// Source is an ingested recording ready for chunking.
type Source struct {
	OriginalPath string
	PCMPath      string
	SampleRate   int
	Samples      []float32
	// DurationSeconds is len(Samples)/SampleRate, truncated.
	DurationSeconds int
}

// Name returns the original file's base name.
func (s Source) Name() string {
	return filepath.Base(s.OriginalPath)
}
