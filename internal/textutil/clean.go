package textutil

import (
	"regexp"
	"strings"
)

// nonSpeechPattern matches whole-token annotations recognizers emit for
// silence or noise, e.g. "[BLANK_AUDIO]", "(music)", "[ Silence ]".
var nonSpeechPattern = regexp.MustCompile(`(?i)[\[(]\s*(blank_audio|silence|music|no speech|inaudible|noise)\s*[\])]`)

// CleanTranscript removes non-speech annotations and collapses all runs of
// whitespace (including newlines) into single spaces.
func CleanTranscript(text string) string {
	text = nonSpeechPattern.ReplaceAllString(text, " ")
	return CollapseWhitespace(text)
}

// CollapseWhitespace trims text and replaces internal whitespace runs with one space.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
