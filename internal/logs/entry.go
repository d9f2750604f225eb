package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"batchscribe/internal/logging"
)

// Entry is one decoded log record.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]any
	Raw     string
}

// RunID returns the run the record belongs to, if any.
func (e Entry) RunID() string { return e.field(logging.FieldRunID) }

// File returns the recording the record is about, if any.
func (e Entry) File() string { return e.field(logging.FieldFile) }

func (e Entry) field(key string) string {
	if v, ok := e.Fields[key].(string); ok {
		return v
	}
	return ""
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects with a
// message are reported as not ok.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Entry{}, false
	}
	msg, ok := fields["msg"].(string)
	if !ok {
		return Entry{}, false
	}
	entry := Entry{Message: msg, Raw: line, Fields: fields}
	if lvl, ok := fields["level"].(string); ok {
		entry.Level = strings.ToLower(lvl)
	}
	if ts, ok := fields["ts"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.Time = parsed
		}
	}
	delete(fields, "msg")
	delete(fields, "level")
	delete(fields, "ts")
	return entry, true
}

// Filter selects entries. Zero values match everything.
type Filter struct {
	RunID    string
	File     string
	MinLevel string
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return f.RunID != "" || f.File != "" || f.MinLevel != ""
}

// Match reports whether e passes the filter. RunID matches as a prefix so
// the short IDs shown by `history` work.
func (f Filter) Match(e Entry) bool {
	if f.RunID != "" && !strings.HasPrefix(e.RunID(), f.RunID) {
		return false
	}
	if f.File != "" && e.File() != f.File {
		return false
	}
	if f.MinLevel != "" && levelRank(e.Level) < levelRank(f.MinLevel) {
		return false
	}
	return true
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		return 1
	}
}

// Format renders an entry on one line: time, level, message, then the
// remaining fields sorted by key.
func Format(e Entry) string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format(time.DateTime))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s %s", strings.ToUpper(e.Level), e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}
