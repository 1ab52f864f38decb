// =============================================================================
// Record Normalizer - CSV Parser Module
// =============================================================================
//
// This module decodes the character-separated input stream into records.
// Each record is tagged with its ordinal (0-based count of rows decoded so
// far, the header being ordinal 0) and the input line it started on.
//
// FEATURES:
//   - Configurable single-character delimiter (comma, pipe, tab, etc.)
//   - Optional charset decoding for non UTF-8 sources
//   - Streaming, one record at a time; nothing is buffered beyond the reader
//   - Syntax errors are surfaced per record so the caller can skip them
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dispatchrabbi/truss-interview/internal/config"
	"github.com/dispatchrabbi/truss-interview/internal/types"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads records from a stream one at a time.
//
// USAGE:
//   parser, err := NewStreamingParser(os.Stdin, settings)
//   if err != nil {
//       return err
//   }
//
//   for parser.Next() {
//       if err := parser.DecodeErr(); err != nil {
//           // Malformed record; report it and keep going.
//           continue
//       }
//       record := parser.Record()
//       // Process the record...
//   }
//
//   if err := parser.Err(); err != nil {
//       return err
//   }
type StreamingParser struct {
	reader    *csv.Reader
	current   types.Record
	decodeErr error
	ordinal   int
	err       error
}

// NewStreamingParser creates a streaming parser over r.
//
// PARAMETERS:
//   - r: The input stream.
//   - settings: The CSV settings from the configuration.
//
// RETURNS:
//   - A pointer to the StreamingParser.
//   - An error if the settings name an unknown encoding or an invalid delimiter.
func NewStreamingParser(r io.Reader, settings config.CSVSettings) (*StreamingParser, error) {
	decoded, err := decodeReader(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bufio.NewReader(decoded))
	if err := configureReader(reader, settings); err != nil {
		return nil, err
	}

	return &StreamingParser{reader: reader}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) error {
	delimiter, err := Delimiter(settings.Delimiter)
	if err != nil {
		return err
	}
	reader.Comma = delimiter

	// Row width is checked by the normalizer so that a short or long row is
	// dropped with a diagnostic instead of ending the stream.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = settings.LazyQuotes

	// Field values are passed through byte for byte.
	reader.TrimLeadingSpace = false

	// Each record gets a fresh slice; rows outlive the next Read call.
	reader.ReuseRecord = false

	return nil
}

// Delimiter resolves a configured delimiter name to its rune.
//
// SUPPORTED VALUES:
//   - "," (default when empty)
//   - "\t", "tab", "TAB"
//   - "|", "pipe", "PIPE"
//   - ";", "semicolon"
//   - any other single character
func Delimiter(name string) (rune, error) {
	switch name {
	case "":
		return ',', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}

	if utf8.RuneCountInString(name) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", name)
	}

	r, _ := utf8.DecodeRuneInString(name)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", name)
	}
	return r, nil
}

// decodeReader wraps r so that it yields UTF-8.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	if encoding == "" || strings.EqualFold(encoding, "UTF-8") || strings.EqualFold(encoding, "utf8") {
		// Drop a leading byte order mark; pass everything else through.
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	}

	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", encoding, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// Next advances to the next record. It returns false at end of input or
// on a read error; check Err afterwards.
//
// A record with a syntax error still advances: Next returns true and
// DecodeErr reports the problem. Malformed records do not consume an ordinal.
func (p *StreamingParser) Next() bool {
	if p.err != nil {
		return false
	}

	p.decodeErr = nil

	row, err := p.reader.Read()
	if err == io.EOF {
		return false
	}

	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			p.decodeErr = parseErr
			p.current = types.Record{Ordinal: -1, Line: parseErr.StartLine}
			return true
		}
		p.err = fmt.Errorf("error reading record %d: %w", p.ordinal, err)
		return false
	}

	line, _ := p.reader.FieldPos(0)
	p.current = types.Record{
		Ordinal: p.ordinal,
		Line:    line,
		Fields:  row,
	}
	p.ordinal++

	return true
}

// Record returns the current record.
func (p *StreamingParser) Record() types.Record {
	return p.current
}

// DecodeErr returns the syntax error of the current record, if any.
func (p *StreamingParser) DecodeErr() error {
	return p.decodeErr
}

// Err returns the error that stopped the parser, if any.
func (p *StreamingParser) Err() error {
	return p.err
}
