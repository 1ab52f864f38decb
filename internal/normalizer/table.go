// =============================================================================
// Record Normalizer - Column Transform Table
// =============================================================================
//
// The Table binds every declared column kind to exactly one FieldTransformer
// and applies them to whole rows. It is built once at startup and is
// read-only afterwards, so a single Table may be shared freely.
//
// =============================================================================

package normalizer

import (
	"fmt"

	"golang.org/x/text/language"
)

// Options configures the transforms that take parameters.
type Options struct {
	// TimestampLayout is the Go layout of the Timestamp column.
	// Default: DefaultTimestampLayout
	TimestampLayout string
}

// Table is the ordered column index -> transform mapping.
type Table struct {
	kinds      [Width]ColumnKind
	transforms [Width]FieldTransformer
}

// NewTable builds the table for the declared Columns.
//
// RETURNS:
//   - The table.
//   - An error if any column lacks a transform, or a cross-column transform
//     depends on a column that is missing or of the wrong kind.
func NewTable(opts Options) (*Table, error) {
	timestamp, err := NewTimestamp(opts.TimestampLayout)
	if err != nil {
		return nil, err
	}

	bindings := map[ColumnKind]FieldTransformer{
		KindTimestamp:   timestamp,
		KindAddress:     FreeInput,
		KindZIP:         PostalCode,
		KindFullName:    Name{Tag: language.Und},
		KindFooDuration: Duration,
		KindBarDuration: Duration,
		KindTotalDuration: TotalDuration{
			Sources: []int{IndexOf(KindFooDuration), IndexOf(KindBarDuration)},
		},
		KindNotes: FreeInput,
	}

	return newTable(Columns, bindings)
}

// newTable resolves kinds against bindings and checks declared dependencies.
func newTable(kinds [Width]ColumnKind, bindings map[ColumnKind]FieldTransformer) (*Table, error) {
	t := &Table{kinds: kinds}

	for i, kind := range kinds {
		transform, ok := bindings[kind]
		if !ok || transform == nil {
			return nil, fmt.Errorf("column %d (%s): %w", i, kind, ErrUnknownKind)
		}
		t.transforms[i] = transform
	}

	for i, transform := range t.transforms {
		dependent, ok := transform.(ColumnDependent)
		if !ok {
			continue
		}
		for _, index := range dependent.DependsOn() {
			if index < 0 || index >= Width {
				return nil, fmt.Errorf("column %d (%s) depends on column %d outside the row", i, kinds[i], index)
			}
			if k := kinds[index]; k != KindFooDuration && k != KindBarDuration {
				return nil, fmt.Errorf("column %d (%s) depends on column %d (%s), which is not a duration", i, kinds[i], index, k)
			}
		}
	}

	return t, nil
}

// Kind returns the column kind bound at index.
func (t *Table) Kind(index int) ColumnKind {
	if index < 0 || index >= Width {
		return KindUnknown
	}
	return t.kinds[index]
}

// TransformRow applies the table to one row and returns a new row of the
// same width. The input row is not modified. The first failing field stops
// the row and its error is returned unchanged apart from the column stamp.
func (t *Table) TransformRow(row []string) ([]string, error) {
	if len(row) != Width {
		return nil, &WidthError{Got: len(row), Want: Width}
	}

	out := make([]string, Width)
	for i, value := range row {
		transformed, err := t.transforms[i].TransformField(value, row)
		if err != nil {
			return nil, atColumn(err, i, t.kinds[i])
		}
		out[i] = transformed
	}

	return out, nil
}
