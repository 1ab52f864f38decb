package pipeline

import (
	"github.com/dispatchrabbi/truss-interview/internal/types"
)

// RowTransformer turns one data row into its normalized form.
type RowTransformer interface {
	TransformRow(row []string) ([]string, error)
}

type dispatchState int

const (
	stateHeader dispatchState = iota
	stateData
)

// Dispatcher forwards the first row it sees unchanged and hands every later
// row to a RowTransformer. It never returns to the header state.
type Dispatcher struct {
	transformer RowTransformer
	diagnostics Diagnostics
	state       dispatchState
}

// NewDispatcher creates a Dispatcher in the header state.
func NewDispatcher(transformer RowTransformer, diagnostics Diagnostics) *Dispatcher {
	return &Dispatcher{
		transformer: transformer,
		diagnostics: diagnostics,
		state:       stateHeader,
	}
}

// Dispatch returns the row to emit for rec.
//
// RETURNS:
//   - The header unchanged, or the transformed data row.
//   - A non-nil error when the data row was dropped. The failure has already
//     been reported on the diagnostics sink; the caller must not emit
//     anything for this record and should continue with the next one.
func (d *Dispatcher) Dispatch(rec types.Record) ([]string, error) {
	if d.state == stateHeader {
		d.state = stateData
		return rec.Fields, nil
	}

	row, err := d.transformer.TransformRow(rec.Fields)
	if err != nil {
		d.diagnostics.RowFailed(rec.Ordinal, err)
		return nil, err
	}
	return row, nil
}

// InHeader reports whether the next row will be treated as the header.
func (d *Dispatcher) InHeader() bool {
	return d.state == stateHeader
}
