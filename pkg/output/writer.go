// Package output holds the persistence collaborators of the render
// pipeline: the file writer and the optional source formatter. The engine
// hands them already-rendered text; everything about directories, retries
// and backups is this package's concern.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer persists rendered text at an absolute path.
type Writer interface {
	Write(ctx context.Context, text string, absolutePath string) error
}

// Formatter pretty-prints rendered source text. Parser names are dialect
// metadata supplied by the active backend (for example "html" or "vue").
type Formatter interface {
	Format(ctx context.Context, text string, parser string) (string, error)
}

// FileWriter writes output files to disk, creating parent directories and
// optionally keeping a backup of the previous file content.
type FileWriter struct {
	// Backup moves an existing file aside as <path>.bak before overwriting.
	Backup bool
	// Retries is the number of additional write attempts on failure.
	Retries int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
}

// NewFileWriter creates a writer with a single retry and no backups.
func NewFileWriter() *FileWriter {
	return &FileWriter{Retries: 1, RetryDelay: 50 * time.Millisecond}
}

// Write persists text at absolutePath.
func (w *FileWriter) Write(ctx context.Context, text string, absolutePath string) error {
	if absolutePath == "" {
		return fmt.Errorf("output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(absolutePath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.Backup {
		if _, err := os.Stat(absolutePath); err == nil {
			if err := os.Rename(absolutePath, absolutePath+".bak"); err != nil {
				return fmt.Errorf("failed to back up %s: %w", absolutePath, err)
			}
		}
	}

	var lastErr error
	attempts := w.Retries + 1
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = os.WriteFile(absolutePath, []byte(text), 0644); lastErr == nil {
			return nil
		}
		if i < attempts-1 && w.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.RetryDelay):
			}
		}
	}
	return fmt.Errorf("failed to write %s: %w", absolutePath, lastErr)
}

// Discard is a Writer that drops all output; used by tests and dry runs.
type Discard struct{}

// Write implements Writer.
func (Discard) Write(context.Context, string, string) error { return nil }
