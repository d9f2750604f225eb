package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const pollInterval = 250 * time.Millisecond

// TailOptions controls a single Tail call. A negative Offset reads the last
// Limit matching entries; otherwise reading resumes at Offset. With Follow,
// Tail waits up to Wait for new entries when none are available.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Filter Filter
}

// TailResult carries the entries read and the offset to resume from.
type TailResult struct {
	Entries []Entry
	Offset  int64
}

// Tail reads entries from the JSON log at path. A missing file yields no
// entries and offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		entries, offset, err := readLast(path, opts.Limit, opts.Filter)
		if err != nil {
			return result, err
		}
		result = TailResult{Entries: entries, Offset: offset}
	} else {
		offset := opts.Offset
		// Rotated or truncated: start over from the beginning.
		if offset > info.Size() {
			offset = 0
		}
		entries, next, err := readForward(path, offset, opts.Filter)
		if err != nil {
			return result, err
		}
		result = TailResult{Entries: entries, Offset: next}
	}

	if opts.Follow && opts.Wait > 0 && len(result.Entries) == 0 {
		return waitForEntries(ctx, path, result.Offset, opts.Wait, opts.Filter)
	}
	return result, nil
}

func readLast(path string, limit int, filter Filter) ([]Entry, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		size, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, size, nil
	}

	ring := make([]Entry, limit)
	count, idx := 0, 0
	offset, err := scanEntries(file, 0, filter, func(e Entry) {
		ring[idx] = e
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	entries := make([]Entry, count)
	if count == limit {
		for i := 0; i < count; i++ {
			entries[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(entries, ring[:count])
	}
	return entries, offset, nil
}

func readForward(path string, offset int64, filter Filter) ([]Entry, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	var entries []Entry
	next, err := scanEntries(file, offset, filter, func(e Entry) {
		entries = append(entries, e)
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, next, nil
}

// scanEntries decodes complete lines from r and returns the offset just past
// the last newline, so a record still being written is read on the next call.
func scanEntries(r io.Reader, start int64, filter Filter, emit func(Entry)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	offset := start
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		entry, ok := ParseEntry(line)
		if !ok {
			if filter.Active() {
				continue
			}
			entry = Entry{Message: trimNewline(line), Raw: trimNewline(line)}
		}
		if filter.Match(entry) {
			emit(entry)
		}
	}
}

func waitForEntries(ctx context.Context, path string, offset int64, wait time.Duration, filter Filter) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		entries, next, err := readForward(path, result.Offset, filter)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(entries) > 0 {
			result.Entries = entries
			return result, nil
		}
		if time.Now().After(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func trimNewline(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
