package records

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const spoolBufferSize = 1 << 20

// Spool is a single-pass input copied to a temporary file so it can be
// re-read. The disk cost is the size of the input.
type Spool struct {
	Path  string
	Bytes int64

	dir string
}

// SpoolReader copies r into a new file named base inside a fresh temporary
// directory under dir ("" for the system default). Callers must Remove the
// spool when they are done with it.
func SpoolReader(r io.Reader, dir, base string) (*Spool, error) {
	tmp, err := os.MkdirTemp(dir, "dehumanizer-spool-")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	path := filepath.Join(tmp, base)
	file, err := os.Create(path)
	if err != nil {
		os.RemoveAll(tmp)
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}

	w := bufio.NewWriterSize(file, spoolBufferSize)
	n, err := io.Copy(w, r)
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.RemoveAll(tmp)
		return nil, fmt.Errorf("failed to spool input: %w", err)
	}

	return &Spool{Path: path, Bytes: n, dir: tmp}, nil
}

// Remove deletes the spool file and its directory.
func (s *Spool) Remove() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}
