package pipeline

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dispatchrabbi/truss-interview/internal/normalizer"
	"github.com/dispatchrabbi/truss-interview/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDiagnostics struct {
	rows    []int
	decodes []int
	errs    []error
}

func (d *recordingDiagnostics) RowFailed(ordinal int, err error) {
	d.rows = append(d.rows, ordinal)
	d.errs = append(d.errs, err)
}

func (d *recordingDiagnostics) DecodeFailed(line int, err error) {
	d.decodes = append(d.decodes, line)
	d.errs = append(d.errs, err)
}

type failingTransformer struct{}

func (failingTransformer) TransformRow([]string) ([]string, error) {
	return nil, errors.New("always fails")
}

func TestDispatcher_HeaderPassesThrough(t *testing.T) {
	t.Parallel()

	headers := [][]string{
		{"Timestamp", "Address", "ZIP", "FullName", "FooDuration", "BarDuration", "TotalDuration", "Notes"},
		{"not", "even", "eight", "columns"},
		{"abc", "", "", "", "garbage", "1:xx:00", "", ""},
		{},
	}

	for _, header := range headers {
		diag := &recordingDiagnostics{}
		d := NewDispatcher(failingTransformer{}, diag)
		require.True(t, d.InHeader())

		out, err := d.Dispatch(types.Record{Ordinal: 0, Line: 1, Fields: header})
		require.NoError(t, err)
		assert.Equal(t, header, out)
		assert.False(t, d.InHeader())
		assert.Empty(t, diag.rows)
	}
}

func TestDispatcher_DataRows(t *testing.T) {
	t.Parallel()

	table, err := normalizer.NewTable(normalizer.Options{})
	require.NoError(t, err)

	diag := &recordingDiagnostics{}
	d := NewDispatcher(table, diag)

	_, err = d.Dispatch(types.Record{Ordinal: 0, Fields: []string{"header"}})
	require.NoError(t, err)

	good := types.Record{Ordinal: 1, Line: 2, Fields: validRow()}
	out, err := d.Dispatch(good)
	require.NoError(t, err)
	assert.Len(t, out, normalizer.Width)
	assert.Equal(t, "10565.246", out[normalizer.IndexOf(normalizer.KindTotalDuration)])

	bad := validRow()
	bad[normalizer.IndexOf(normalizer.KindFooDuration)] = "abc"
	out, err = d.Dispatch(types.Record{Ordinal: 2, Line: 3, Fields: bad})
	require.Error(t, err)
	assert.Nil(t, out)

	// Exactly one report, carrying the ordinal.
	assert.Equal(t, []int{2}, diag.rows)
	assert.Empty(t, diag.decodes)

	// Never returns to the header state.
	assert.False(t, d.InHeader())
	out, err = d.Dispatch(good)
	require.NoError(t, err)
	assert.Len(t, out, normalizer.Width)
}

func TestWriterDiagnostics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	diag := NewWriterDiagnostics(&buf)

	diag.RowFailed(3, errors.New("bad duration"))
	diag.DecodeFailed(7, errors.New("bare quote"))

	assert.Equal(t,
		"Error transforming line 3: bad duration\nError reading line 7: bare quote\n",
		buf.String())
}

func validRow() []string {
	return []string{
		"4/1/11 11:00:00 AM",
		"123 4th St, Anywhere, AA",
		"94121",
		"Monkey Alberto",
		"1:23:32.123",
		"1:32:33.123",
		"zzsasdfa",
		"I am the very model of a modern major general",
	}
}
