// Package export writes calendar files to disk on a schedule.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/cadence/internal/adapters/ics"
)

// ErrNoDirectory is returned when a Writer has no target directory.
var ErrNoDirectory = errors.New("export directory not configured")

// Writer stores calendar blobs under a fixed directory.
type Writer struct {
	dir      string
	filename string
}

// NewWriter returns a writer targeting dir/calendar-events.ics.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, filename: ics.Filename}
}

// Path returns the file the writer replaces.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, w.filename)
}

// Write replaces the target file with blob. Readers see the old or the new
// file, never a partial one.
func (w *Writer) Write(ctx context.Context, blob []byte) error {
	if w.dir == "" {
		return ErrNoDirectory
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, ".calendar-events-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, w.Path()); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}
