package pipeline

import (
	"fmt"
	"io"
)

// Diagnostics receives row-level and decode-level failures. It is kept
// separate from the data output so a caller can route it anywhere.
type Diagnostics interface {
	// RowFailed reports a data row that was dropped.
	RowFailed(ordinal int, err error)

	// DecodeFailed reports an input record that could not be decoded.
	DecodeFailed(line int, err error)
}

// WriterDiagnostics writes one line per failure to W.
type WriterDiagnostics struct {
	W io.Writer
}

// NewWriterDiagnostics returns a Diagnostics that writes to w.
func NewWriterDiagnostics(w io.Writer) *WriterDiagnostics {
	return &WriterDiagnostics{W: w}
}

// RowFailed satisfies Diagnostics.
func (d *WriterDiagnostics) RowFailed(ordinal int, err error) {
	fmt.Fprintf(d.W, "Error transforming line %d: %s\n", ordinal, err)
}

// DecodeFailed satisfies Diagnostics.
func (d *WriterDiagnostics) DecodeFailed(line int, err error) {
	fmt.Fprintf(d.W, "Error reading line %d: %s\n", line, err)
}
