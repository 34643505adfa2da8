// Package inspect clones shallow repository snapshots into private
// temporary directories and scans them for structural signals.
package inspect

import (
	"log/slog"
	"os"
)

const workdirPrefix = "hirescope-"

// WithWorkdir creates a private directory under parent (the system temp dir
// when empty), runs fn with it and removes it recursively however fn exits,
// panics included.
func WithWorkdir(parent string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp(parent, workdirPrefix)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			slog.Warn("Failed to remove clone workdir", "dir", dir, "error", rmErr)
		}
	}()
	return fn(dir)
}
