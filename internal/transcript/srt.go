package transcript

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatTimestamp renders d as HH:MM:SS,mmm. Hours widen past two digits
// rather than wrapping; negative durations clamp to zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// ParseTimestamp reads an SRT timestamp. A period is accepted in place of the
// millisecond comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}

// RenderSRT formats entries as an SRT document: index line, timing line, text
// line(s), blank line. An empty text still yields one (empty) text line.
func RenderSRT(entries []SubtitleEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(strconv.Itoa(entry.Index))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(entry.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(entry.End))
		b.WriteByte('\n')
		lines := textLines(entry.Text)
		if len(lines) == 0 {
			b.WriteByte('\n')
		}
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// textLines drops blank lines so cue text never terminates its own block.
func textLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ParseSRT reads an SRT document produced by RenderSRT (or any well-formed
// SRT). Multi-line cue text is joined with newlines.
func ParseSRT(content string) ([]SubtitleEntry, error) {
	var entries []SubtitleEntry
	scanner := bufio.NewScanner(strings.NewReader(strings.ReplaceAll(content, "\r\n", "\n")))
	lineNo := 0
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNo++
		return scanner.Text(), true
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if line == "" {
			continue
		}
		index, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid cue index %q", lineNo, line)
		}
		timing, ok := next()
		if !ok {
			return nil, fmt.Errorf("line %d: cue %d missing timing line", lineNo, index)
		}
		startText, endText, found := strings.Cut(timing, "-->")
		if !found {
			return nil, fmt.Errorf("line %d: invalid timing line %q", lineNo, timing)
		}
		start, err := ParseTimestamp(startText)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		end, err := ParseTimestamp(endText)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		var text []string
		for {
			body, ok := next()
			if !ok || strings.TrimSpace(body) == "" {
				break
			}
			text = append(text, strings.TrimSpace(body))
		}
		entries = append(entries, SubtitleEntry{Index: index, Start: start, End: end, Text: strings.Join(text, "\n")})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return entries, nil
}
