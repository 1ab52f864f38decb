package csvparser

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dispatchrabbi/truss-interview/internal/config"
	"github.com/dispatchrabbi/truss-interview/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, p *StreamingParser) ([]types.Record, []error) {
	t.Helper()

	var records []types.Record
	var decodeErrs []error
	for p.Next() {
		if err := p.DecodeErr(); err != nil {
			decodeErrs = append(decodeErrs, err)
			continue
		}
		records = append(records, p.Record())
	}
	require.NoError(t, p.Err())
	return records, decodeErrs
}

func TestStreamingParser_OrdinalsAndLines(t *testing.T) {
	t.Parallel()

	input := "a,b\n" +
		"1,\"multi\nline\"\n" +
		"\n" +
		"2,x\n"

	p, err := NewStreamingParser(strings.NewReader(input), config.CSVSettings{})
	require.NoError(t, err)

	records, decodeErrs := readAll(t, p)
	assert.Empty(t, decodeErrs)

	require.Len(t, records, 3)
	assert.Equal(t, types.Record{Ordinal: 0, Line: 1, Fields: []string{"a", "b"}}, records[0])
	assert.Equal(t, types.Record{Ordinal: 1, Line: 2, Fields: []string{"1", "multi\nline"}}, records[1])
	assert.Equal(t, types.Record{Ordinal: 2, Line: 5, Fields: []string{"2", "x"}}, records[2])
}

func TestStreamingParser_VariableWidth(t *testing.T) {
	t.Parallel()

	p, err := NewStreamingParser(strings.NewReader("a,b,c\n1\n1,2,3,4\n"), config.CSVSettings{})
	require.NoError(t, err)

	records, decodeErrs := readAll(t, p)
	assert.Empty(t, decodeErrs)
	require.Len(t, records, 3)
	assert.Len(t, records[1].Fields, 1)
	assert.Len(t, records[2].Fields, 4)
}

func TestStreamingParser_DecodeErrorSkipsRecord(t *testing.T) {
	t.Parallel()

	input := "h1,h2\n" +
		"a,b\"c\n" +
		"x,y\n"

	p, err := NewStreamingParser(strings.NewReader(input), config.CSVSettings{})
	require.NoError(t, err)

	require.True(t, p.Next())
	require.NoError(t, p.DecodeErr())

	require.True(t, p.Next())
	require.Error(t, p.DecodeErr())
	assert.Equal(t, 2, p.Record().Line)
	assert.Equal(t, -1, p.Record().Ordinal)

	require.True(t, p.Next())
	require.NoError(t, p.DecodeErr())
	assert.Equal(t, types.Record{Ordinal: 1, Line: 3, Fields: []string{"x", "y"}}, p.Record())

	assert.False(t, p.Next())
	assert.NoError(t, p.Err())
}

func TestStreamingParser_LazyQuotes(t *testing.T) {
	t.Parallel()

	p, err := NewStreamingParser(strings.NewReader("h\na\"b\n"), config.CSVSettings{LazyQuotes: true})
	require.NoError(t, err)

	records, decodeErrs := readAll(t, p)
	assert.Empty(t, decodeErrs)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"a\"b"}, records[1].Fields)
}

func TestStreamingParser_Delimiters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		delimiter string
		input     string
	}{
		{name: "pipe alias", delimiter: "pipe", input: "a|b c\n"},
		{name: "pipe", delimiter: "|", input: "a|b c\n"},
		{name: "tab alias", delimiter: "tab", input: "a\tb c\n"},
		{name: "escaped tab", delimiter: "\\t", input: "a\tb c\n"},
		{name: "semicolon", delimiter: "semicolon", input: "a;b c\n"},
		{name: "default", delimiter: "", input: "a,b c\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewStreamingParser(strings.NewReader(tt.input), config.CSVSettings{Delimiter: tt.delimiter})
			require.NoError(t, err)

			records, _ := readAll(t, p)
			require.Len(t, records, 1)
			assert.Equal(t, []string{"a", "b c"}, records[0].Fields)
		})
	}
}

func TestDelimiter_Invalid(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"ab", "\"", "\n", "\r", "\xff"} {
		_, err := Delimiter(name)
		assert.Error(t, err, "delimiter %q", name)
	}

	r, err := Delimiter("§")
	require.NoError(t, err)
	assert.Equal(t, '§', r)
}

func TestStreamingParser_ByteOrderMark(t *testing.T) {
	t.Parallel()

	input := "\xEF\xBB\xBFTimestamp,Notes\n1,2\n"

	p, err := NewStreamingParser(strings.NewReader(input), config.CSVSettings{Encoding: "UTF-8"})
	require.NoError(t, err)

	records, _ := readAll(t, p)
	require.Len(t, records, 2)
	assert.Equal(t, "Timestamp", records[0].Fields[0])
}

func TestStreamingParser_InvalidUTF8PassesThrough(t *testing.T) {
	t.Parallel()

	p, err := NewStreamingParser(bytes.NewReader([]byte("h\nab\xffc\n")), config.CSVSettings{})
	require.NoError(t, err)

	records, _ := readAll(t, p)
	require.Len(t, records, 2)
	assert.Len(t, records[1].Fields, 1)
}

func TestStreamingParser_Windows1252(t *testing.T) {
	t.Parallel()

	// "café" with é encoded as 0xE9.
	input := []byte("name\ncaf\xe9\n")

	p, err := NewStreamingParser(bytes.NewReader(input), config.CSVSettings{Encoding: "windows-1252"})
	require.NoError(t, err)

	records, _ := readAll(t, p)
	require.Len(t, records, 2)
	assert.Equal(t, "café", records[1].Fields[0])
}

func TestNewStreamingParser_BadSettings(t *testing.T) {
	t.Parallel()

	_, err := NewStreamingParser(strings.NewReader(""), config.CSVSettings{Encoding: "klingon"})
	assert.Error(t, err)

	_, err = NewStreamingParser(strings.NewReader(""), config.CSVSettings{Delimiter: "::"})
	assert.Error(t, err)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestStreamingParser_ReadErrorIsSticky(t *testing.T) {
	t.Parallel()

	p, err := NewStreamingParser(brokenReader{}, config.CSVSettings{})
	require.NoError(t, err)

	assert.False(t, p.Next())
	require.Error(t, p.Err())
	assert.Contains(t, p.Err().Error(), "disk on fire")
	assert.False(t, p.Next())
}

func TestStreamingParser_Empty(t *testing.T) {
	t.Parallel()

	p, err := NewStreamingParser(strings.NewReader(""), config.CSVSettings{})
	require.NoError(t, err)

	assert.False(t, p.Next())
	assert.NoError(t, p.Err())
	assert.Equal(t, types.Record{}, p.Record())
}
