// =============================================================================
// Record Normalizer - CSV Writer Module
// =============================================================================
//
// This module encodes output rows back into the character-separated format.
// Quoting and escaping follow encoding/csv (RFC 4180): fields containing the
// delimiter, a quote, or a line break are quoted.
//
// =============================================================================

package csvwriter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Options contains options for CSV generation.
type Options struct {
	// Delimiter is the field separator.
	// Default: ','
	Delimiter rune

	// UseCRLF terminates records with \r\n instead of \n.
	// Default: false
	UseCRLF bool
}

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		UseCRLF:   false,
	}
}

// Writer writes rows to an output stream.
type Writer struct {
	csv  *csv.Writer
	rows int
}

// New creates a Writer over w.
func New(w io.Writer, opts Options) *Writer {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	cw.UseCRLF = opts.UseCRLF

	return &Writer{csv: cw}
}

// Write encodes one row. Rows are buffered; the buffer is bounded, so a
// slow sink blocks the writer rather than growing memory.
func (w *Writer) Write(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.rows, err)
	}
	w.rows++
	return nil
}

// Flush writes any buffered rows to the underlying stream.
func (w *Writer) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
