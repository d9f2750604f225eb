package progress

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTerminalTitleSequences(t *testing.T) {
	var buf bytes.Buffer
	title := NewTerminalTitle(&buf)
	title.OnProgress(95*time.Second, 2, 5)
	title.OnFinish(2 * time.Minute)

	want := "\033]0;Elapsed Time: 0:01:35 - 2/5 files processed\007" +
		"\033]0;Total Elapsed Time: 0:02:00\007"
	if buf.String() != want {
		t.Fatalf("title output = %q, want %q", buf.String(), want)
	}
}

type recorder struct {
	progress []int
	finished bool
	chunks   []string
}

func (r *recorder) OnProgress(_ time.Duration, processed, _ int) {
	r.progress = append(r.progress, processed)
}

func (r *recorder) OnFinish(time.Duration) { r.finished = true }

func (r *recorder) OnChunk(file, text string) { r.chunks = append(r.chunks, file+":"+text) }

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b}
	m.OnProgress(time.Second, 1, 2)
	m.OnProgress(time.Second, 2, 2)
	m.OnChunk("a.wav", "hi")
	m.OnFinish(time.Second)

	for _, r := range []*recorder{a, b} {
		if len(r.progress) != 2 || r.progress[1] != 2 || !r.finished {
			t.Fatalf("observer missed events: %+v", r)
		}
		if len(r.chunks) != 1 || r.chunks[0] != "a.wav:hi" {
			t.Fatalf("chunks = %v", r.chunks)
		}
	}
}

type captureHandler struct {
	messages []string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func TestLogObserverSamples(t *testing.T) {
	h := &captureHandler{}
	l := NewLog(slog.New(h))
	for i := 1; i <= 40; i++ {
		l.OnProgress(time.Second, i, 40)
	}
	l.OnFinish(time.Minute)

	progress := 0
	for _, m := range h.messages {
		if m == "run progress" {
			progress++
		}
	}
	if progress != 11 {
		t.Fatalf("progress records = %d, want 11 (first event plus one per 10%% bucket)", progress)
	}
	if last := h.messages[len(h.messages)-1]; last != "Total Elapsed Time" {
		t.Fatalf("last message = %q", last)
	}
}

func TestBarWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.OnFinish(time.Second)
	if buf.Len() != 0 {
		t.Fatal("bar must not draw before the first progress event")
	}
	bar.OnChunk("talk.wav", "hello there")
	bar.OnProgress(time.Second, 1, 3)
	bar.OnChunk("talk.wav", "general kenobi")
	bar.OnProgress(time.Second, 3, 3)
	bar.OnFinish(time.Second)
	if buf.Len() == 0 {
		t.Fatal("expected bar output")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	got := truncate(strings.Repeat("x", 20), 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("got %q", got)
	}
}
