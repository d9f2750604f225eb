package transcript

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{30 * time.Second, "00:00:30,000"},
		{95 * time.Second, "00:01:35,000"},
		{time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond, "01:02:03,045"},
		{123*time.Hour + 999*time.Millisecond, "123:00:00,999"},
		{-time.Second, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("01:02:03,045")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if want := time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond; got != want {
		t.Fatalf("got %v want %v", got, want)
	}
	if got, err := ParseTimestamp("00:00:01.500"); err != nil || got != 1500*time.Millisecond {
		t.Fatalf("period separator: %v %v", got, err)
	}
	for _, bad := range []string{"", "00:00:01", "aa:00:00,000", "00:61:00,000", "00:00:00,1000"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func chunks(bounds ...int) []Chunk {
	out := make([]Chunk, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		out = append(out, Chunk{Index: i, Start: bounds[i], End: bounds[i+1]})
	}
	return out
}

func TestAssemblerAlignsEntriesWithChunks(t *testing.T) {
	asm := NewAssembler()
	texts := []string{"  hello there ", "", "general kenobi"}
	for i, c := range chunks(0, 30, 60, 75) {
		if err := asm.Add(c, texts[i]); err != nil {
			t.Fatalf("Add(%v): %v", c, err)
		}
	}
	if asm.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", asm.Len())
	}
	if got := asm.Text(); got != "hello there\n\ngeneral kenobi" {
		t.Fatalf("unexpected text %q", got)
	}
	entries := asm.Entries()
	for i, e := range entries {
		if e.Index != i+1 {
			t.Fatalf("entry %d has index %d", i, e.Index)
		}
	}
	if entries[2].Start != 60*time.Second || entries[2].End != 75*time.Second {
		t.Fatalf("unexpected final bounds %v-%v", entries[2].Start, entries[2].End)
	}
}

func TestAssemblerRejectsOutOfOrder(t *testing.T) {
	asm := NewAssembler()
	if err := asm.Add(Chunk{Index: 1, Start: 30, End: 60}, "skip"); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder for skipped index, got %v", err)
	}
	if err := asm.Add(Chunk{Index: 0, Start: 0, End: 30}, "first"); err != nil {
		t.Fatal(err)
	}
	if err := asm.Add(Chunk{Index: 1, Start: 35, End: 60}, "gap"); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder for gap, got %v", err)
	}
	if err := asm.Add(Chunk{Index: 0, Start: 0, End: 30}, "again"); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder for repeat, got %v", err)
	}
	if asm.Len() != 1 {
		t.Fatalf("rejected chunks must not be recorded, len=%d", asm.Len())
	}
}

func TestRenderSRT(t *testing.T) {
	asm := NewAssembler()
	for i, text := range []string{"first line", "", "multi\n\nline"} {
		c := Chunk{Index: i, Start: i * 30, End: i*30 + 30}
		if i == 2 {
			c.End = 65
		}
		if err := asm.Add(c, text); err != nil {
			t.Fatal(err)
		}
	}
	want := strings.Join([]string{
		"1",
		"00:00:00,000 --> 00:00:30,000",
		"first line",
		"",
		"2",
		"00:00:30,000 --> 00:01:00,000",
		"",
		"",
		"3",
		"00:01:00,000 --> 00:01:05,000",
		"multi",
		"line",
		"",
		"",
	}, "\n")
	if got := asm.SRT(); got != want {
		t.Fatalf("unexpected SRT:\n%q\nwant\n%q", got, want)
	}

	parsed, err := ParseSRT(asm.SRT())
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("expected 3 parsed entries, got %d", len(parsed))
	}
	if parsed[1].Text != "" || parsed[2].Text != "multi\nline" || parsed[2].End != 65*time.Second {
		t.Fatalf("unexpected parsed entries %+v", parsed)
	}
}

func TestRenderSRTEmpty(t *testing.T) {
	if got := RenderSRT(nil); got != "" {
		t.Fatalf("expected empty document, got %q", got)
	}
	if entries, err := ParseSRT(""); err != nil || len(entries) != 0 {
		t.Fatalf("ParseSRT(\"\") = %v, %v", entries, err)
	}
}

func TestParseSRTRejectsMalformed(t *testing.T) {
	for _, doc := range []string{
		"x\n00:00:00,000 --> 00:00:01,000\nhi\n",
		"1\n00:00:00,000 00:00:01,000\nhi\n",
		"1\n",
	} {
		if _, err := ParseSRT(doc); err == nil {
			t.Fatalf("expected error for %q", doc)
		}
	}
}
