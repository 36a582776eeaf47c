package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/varietylab/macebatch/internal/parse"
)

const (
	tailLines = 10
	tailBytes = 64 * 1024
)

// Complete reports whether the capture at path shows a finished search: the
// success marker appears exactly once among its last 10 lines. A capture that
// does not exist yet is simply not complete.
func Complete(path string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("opening capture: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	lines, err := tail(f, tailLines)
	if err != nil {
		return false, fmt.Errorf("reading capture %s: %w", path, err)
	}
	var found int
	for _, line := range lines {
		if parse.Classify(string(line)).Kind == parse.KindSuccessExit {
			found++
		}
	}
	return found == 1, nil
}

// tail returns up to n last lines of f, ignoring a trailing newline. Only the
// last tailBytes of the file are examined.
func tail(f *os.File, n int) ([][]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	offset := max(info.Size()-tailBytes, 0)
	buf := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(buf, offset); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	buf = bytes.TrimRight(buf, "\n")
	if len(buf) == 0 {
		return nil, nil
	}
	lines := bytes.Split(buf, []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
