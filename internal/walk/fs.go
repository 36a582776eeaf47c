package walk

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
)

// Entry is a regular file found in a job directory.
type Entry interface {
	// Name is the base name of the file.
	Name() string
	// Path is the directory joined with Name.
	Path() string
	Open() (io.ReadCloser, error)
	Stat() (fs.FileInfo, error)
}

// Dir lists the regular files of dir in lexical order. Subdirectories are not
// descended into and symlinks are not followed. A failure to read dir itself is
// yielded once as an error with a nil Entry; per-file stat failures are yielded
// alongside the entry they belong to.
func Dir(ctx context.Context, dir string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		des, err := os.ReadDir(dir)
		if err != nil {
			yield(nil, fmt.Errorf("reading directory %s: %w", dir, err))
			return
		}
		sort.Slice(des, func(i, j int) bool { return des[i].Name() < des[j].Name() })

		for _, d := range des {
			if ctx.Err() != nil {
				return
			}
			if d.IsDir() {
				continue
			}
			entry := fsEntry{
				name: d.Name(),
				path: filepath.Join(dir, d.Name()),
			}
			info, err := d.Info()
			if err != nil {
				entry.infoErr = err
			} else if !info.Mode().IsRegular() {
				continue
			} else {
				entry.info = info
			}
			if !yield(entry, entry.infoErr) {
				return
			}
		}
	}
}

// fsEntry implements Entry for a file on the local filesystem
type fsEntry struct {
	name    string
	path    string
	info    fs.FileInfo
	infoErr error
}

func (e fsEntry) Name() string {
	return e.name
}

func (e fsEntry) Path() string {
	return e.path
}

func (e fsEntry) Open() (io.ReadCloser, error) {
	if e.infoErr != nil {
		return nil, e.infoErr
	}
	return os.Open(e.path)
}

func (e fsEntry) Stat() (fs.FileInfo, error) {
	return e.info, e.infoErr
}
