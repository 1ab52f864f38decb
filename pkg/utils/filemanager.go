// =============================================================================
// Record Normalizer - File Manager Utility
// =============================================================================
//
// This module resolves the input and output streams of a run:
//   - "-" (or an empty path) means the process's stdin or stdout
//   - Any other path is a file
//
// OUTPUT STRATEGY:
//   - Output files are written to a staging file next to the destination
//   - Commit renames the staging file over the destination
//   - Abort removes the staging file, leaving any previous output untouched
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StdioPath is the path that selects stdin or stdout.
const StdioPath = "-"

// =============================================================================
// INPUT
// =============================================================================

// IsStdio reports whether path selects a standard stream.
func IsStdio(path string) bool {
	return path == "" || path == StdioPath
}

// IsXLSX reports whether path names an XLSX workbook.
func IsXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// OpenInput opens path for reading. For a standard stream it returns stdin
// wrapped so that closing it is a no-op.
func OpenInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if IsStdio(path) {
		return io.NopCloser(stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return f, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// Output is the destination of a run.
type Output struct {
	io.Writer

	// Path is the final destination. Empty for stdout.
	Path string

	staging *os.File
}

// CreateOutput prepares the destination for path. For a standard stream the
// returned Output writes straight to stdout and Commit and Abort do nothing.
func CreateOutput(path string, stdout io.Writer) (*Output, error) {
	if IsStdio(path) {
		return &Output{Writer: stdout}, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	stagingPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.New().String()))
	f, err := os.OpenFile(stagingPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &Output{Writer: f, Path: path, staging: f}, nil
}

// Commit moves the staged output into place.
func (o *Output) Commit() error {
	if o.staging == nil {
		return nil
	}

	stagingPath := o.staging.Name()
	if err := o.staging.Sync(); err != nil {
		o.Abort()
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	if err := o.staging.Close(); err != nil {
		os.Remove(stagingPath)
		o.staging = nil
		return fmt.Errorf("failed to close output file: %w", err)
	}
	o.staging = nil

	if err := os.Rename(stagingPath, o.Path); err != nil {
		os.Remove(stagingPath)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// Abort discards the staged output. It is safe to call after Commit.
func (o *Output) Abort() {
	if o.staging == nil {
		return
	}
	stagingPath := o.staging.Name()
	o.staging.Close()
	os.Remove(stagingPath)
	o.staging = nil
}
