package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

const chunkSize = 8 * 1024

// Read returns at most maxLines from the end of the file at path, oldest
// first. A missing file yields no lines. The file is read backwards in
// chunks so cost tracks the tail, not the file size.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	return readTail(file, info.Size(), maxLines)
}

func readTail(r io.ReaderAt, size int64, maxLines int) ([]string, error) {
	var (
		tail   []byte
		offset = size
		buf    = make([]byte, chunkSize)
	)
	// One extra newline is needed to know the oldest kept line is complete.
	for offset > 0 && bytes.Count(tail, []byte{'\n'}) <= maxLines {
		n := int64(chunkSize)
		if offset < n {
			n = offset
		}
		offset -= n
		if _, err := r.ReadAt(buf[:n], offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		tail = append(append([]byte{}, buf[:n]...), tail...)
	}

	text := string(bytes.TrimRight(tail, "\r\n"))
	if text == "" {
		return nil, nil
	}
	lines := splitLines(text)
	if offset > 0 && len(lines) > 0 {
		// The first line may be cut mid-way by the chunk boundary.
		lines = lines[1:]
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

func splitLines(text string) []string {
	parts := bytes.Split([]byte(text), []byte{'\n'})
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = string(bytes.TrimSuffix(p, []byte{'\r'}))
	}
	return lines
}
