package transcript

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrOutOfOrder reports a chunk that does not directly follow the previous one.
var ErrOutOfOrder = errors.New("chunk out of order")

// Chunk is a half-open window [Start, End) in whole seconds.
type Chunk struct {
	Index int
	Start int
	End   int
}

// Seconds returns the window length.
func (c Chunk) Seconds() int {
	return c.End - c.Start
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d [%ds, %ds)", c.Index, c.Start, c.End)
}

// SubtitleEntry is one SRT cue. Index is 1-based.
type SubtitleEntry struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Assembler collects chunk results in order.
type Assembler struct {
	lines   []string
	entries []SubtitleEntry
	nextEnd int
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Add appends the text recognized for chunk. The chunk must be the next one
// expected: its Index equals the number of chunks already added and its Start
// equals the previous chunk's End.
func (a *Assembler) Add(chunk Chunk, text string) error {
	expected := len(a.entries)
	if chunk.Index != expected {
		return fmt.Errorf("%w: got index %d, want %d", ErrOutOfOrder, chunk.Index, expected)
	}
	if chunk.Start != a.nextEnd {
		return fmt.Errorf("%w: %s starts at %ds, previous chunk ended at %ds", ErrOutOfOrder, chunk, chunk.Start, a.nextEnd)
	}
	if chunk.End < chunk.Start {
		return fmt.Errorf("%w: %s ends before it starts", ErrOutOfOrder, chunk)
	}
	text = strings.TrimSpace(text)
	a.lines = append(a.lines, text)
	a.entries = append(a.entries, SubtitleEntry{
		Index: expected + 1,
		Start: time.Duration(chunk.Start) * time.Second,
		End:   time.Duration(chunk.End) * time.Second,
		Text:  text,
	})
	a.nextEnd = chunk.End
	return nil
}

// Len returns the number of chunks added.
func (a *Assembler) Len() int {
	return len(a.entries)
}

// Text returns the transcript lines joined with newlines.
func (a *Assembler) Text() string {
	return strings.Join(a.lines, "\n")
}

// Entries returns a copy of the subtitle entries.
func (a *Assembler) Entries() []SubtitleEntry {
	return append([]SubtitleEntry(nil), a.entries...)
}

// SRT renders the collected entries.
func (a *Assembler) SRT() string {
	return RenderSRT(a.entries)
}
