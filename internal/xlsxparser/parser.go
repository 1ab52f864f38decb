// =============================================================================
// Record Normalizer - XLSX Parser Module
// =============================================================================
//
// This module reads records from a worksheet of an XLSX workbook, so that an
// export saved from a spreadsheet can be normalized without converting it to
// CSV first. Output is always CSV.
//
// SHEET LAYOUT:
//   Row 1 is the header. Every later non-empty row is a data record. Cells
//   are read as their stored value, not as the spreadsheet displays them,
//   except cells with a date or time number format: those are rendered with
//   the configured date layout so a real date in the Timestamp column reads
//   the same as its text form.
//
//   | A                  | B                        | C     | ... | H     |
//   |--------------------|--------------------------|-------|-----|-------|
//   | Timestamp          | Address                  | ZIP   | ... | Notes |
//   | 4/1/11 11:00:00 AM | 123 4th St, Anywhere, AA | 94121 | ... | hi    |
//
// LIMITATIONS:
//   - The workbook is opened from a path; XLSX cannot be streamed from stdin.
//   - Empty rows are skipped, as blank lines are in CSV input.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dispatchrabbi/truss-interview/internal/config"
	"github.com/dispatchrabbi/truss-interview/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// SHEET READER
// =============================================================================

// SheetReader yields the rows of one worksheet as records. It satisfies the
// same iteration contract as csvparser.StreamingParser.
type SheetReader struct {
	file     *excelize.File
	rows     *excelize.Rows
	sheet    string
	layout   string
	date1904 bool
	dateFmt  map[int]bool
	width    int
	rowNum   int
	ordinal  int
	current  types.Record
	err      error
}

// Open opens the workbook at path and positions a reader on the configured
// sheet.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - settings: The XLSX settings; an empty Sheet selects the first sheet.
//
// RETURNS:
//   - A pointer to the SheetReader. The caller must Close it.
//   - An error if the file cannot be opened or the sheet does not exist.
func Open(path string, settings config.XLSXSettings) (*SheetReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	reader, err := NewSheetReader(f, settings)
	if err != nil {
		f.Close()
		return nil, err
	}
	return reader, nil
}

// NewSheetReader creates a reader over an already opened workbook. Closing
// the reader closes the workbook.
func NewSheetReader(f *excelize.File, settings config.XLSXSettings) (*SheetReader, error) {
	sheet := settings.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var date1904 bool
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	return &SheetReader{
		file:     f,
		rows:     rows,
		sheet:    sheet,
		layout:   settings.DateLayout,
		date1904: date1904,
		dateFmt:  make(map[int]bool),
	}, nil
}

// Next advances to the next non-empty row.
func (r *SheetReader) Next() bool {
	if r.err != nil {
		return false
	}

	for r.rows.Next() {
		r.rowNum++

		cells, err := r.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			r.err = fmt.Errorf("error reading row %d of sheet %q: %w", r.rowNum, r.sheet, err)
			return false
		}
		if isRowEmpty(cells) {
			continue
		}

		for i, cell := range cells {
			if cells[i], err = r.cellText(i, cell); err != nil {
				r.err = err
				return false
			}
		}

		if r.ordinal == 0 {
			r.width = len(cells)
		} else {
			cells = padRow(cells, r.width)
		}

		r.current = types.Record{
			Ordinal: r.ordinal,
			Line:    r.rowNum,
			Fields:  cells,
		}
		r.ordinal++
		return true
	}

	if err := r.rows.Error(); err != nil {
		r.err = fmt.Errorf("error reading sheet %q: %w", r.sheet, err)
	}
	return false
}

// Record returns the current record.
func (r *SheetReader) Record() types.Record {
	return r.current
}

// DecodeErr always returns nil; a worksheet has no per-record syntax.
func (r *SheetReader) DecodeErr() error {
	return nil
}

// Err returns the error that stopped the reader, if any.
func (r *SheetReader) Err() error {
	return r.err
}

// Close releases the row iterator and the workbook.
func (r *SheetReader) Close() error {
	rowsErr := r.rows.Close()
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	return rowsErr
}

// =============================================================================
// DATE CELLS
// =============================================================================

// cellText renders a raw cell value. Numbers in a date-formatted cell become
// the date in the configured layout; everything else is returned as stored.
func (r *SheetReader) cellText(col int, raw string) (string, error) {
	if r.layout == "" || raw == "" {
		return raw, nil
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, nil
	}

	isDate, err := r.isDateCell(col)
	if err != nil {
		return "", err
	}
	if !isDate {
		return raw, nil
	}

	t, err := excelize.ExcelDateToTime(serial, r.date1904)
	if err != nil {
		return raw, nil
	}
	// Serial dates carry float error; the layout has whole seconds at most.
	return t.Round(time.Millisecond).Format(r.layout), nil
}

// isDateCell reports whether the cell at col of the current row has a date
// or time number format.
func (r *SheetReader) isDateCell(col int) (bool, error) {
	name, err := excelize.CoordinatesToCellName(col+1, r.rowNum)
	if err != nil {
		return false, err
	}

	styleID, err := r.file.GetCellStyle(r.sheet, name)
	if err != nil {
		return false, fmt.Errorf("failed to read style of cell %s: %w", name, err)
	}
	if styleID == 0 {
		return false, nil
	}
	if isDate, ok := r.dateFmt[styleID]; ok {
		return isDate, nil
	}

	style, err := r.file.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("failed to read style %d: %w", styleID, err)
	}
	isDate := isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	r.dateFmt[styleID] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a number format displays a date or time.
//
// BUILT-IN FORMATS:
//   - 14-22 : dates, times and date-times
//   - 27-36 : East Asian dates
//   - 45-47 : elapsed and clock times
//   - 50-58 : East Asian dates
func isDateNumFmt(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return isDateFormatCode(*custom)
	}
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode looks for date or time tokens outside literal text.
func isDateFormatCode(code string) bool {
	inQuote := false
	inBracket := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++ // the next character is literal
		default:
			switch c | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// padRow restores trailing empty cells, which the workbook does not store.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
