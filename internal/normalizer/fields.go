// =============================================================================
// Record Normalizer - Field Transform Library
// =============================================================================
//
// This file contains the per-column transforms. Each transform is a pure
// function of the field text and, for cross-column transforms only, the
// whole row.
//
// TRANSFORM TYPES:
//   - FreeInput      : passthrough (Address, Notes)
//   - PostalCode     : left-pad with zeros to 5 characters (ZIP)
//   - Name           : locale-aware upper-casing (FullName)
//   - Timestamp      : Pacific wall clock to Eastern RFC 3339 (Timestamp)
//   - Duration       : H+:MM:SS(.fraction) to seconds (FooDuration, BarDuration)
//   - TotalDuration  : sum of the duration columns (TotalDuration)
//
// =============================================================================

package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host zoneinfo
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// SourceZone is the zone input timestamps are recorded in.
	SourceZone = "America/Los_Angeles"

	// TargetZone is the zone output timestamps are rendered in.
	TargetZone = "America/New_York"

	// LayoutMonthDayYear is the month/day/2-digit-year timestamp layout.
	LayoutMonthDayYear = "1/2/06 3:04:05 PM"

	// LayoutYearMonthDay is the year-month-day timestamp layout.
	LayoutYearMonthDay = "2006-01-02 3:04:05 PM"

	// DefaultTimestampLayout is the layout used when none is configured.
	DefaultTimestampLayout = LayoutMonthDayYear

	// ZIPLength is the fixed output length of the postal-code transform.
	ZIPLength = 5
)

// durationPattern matches H+:MM:SS with an optional fractional second.
var durationPattern = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2}(?:\.\d+)?)$`)

// =============================================================================
// TRANSFORM CAPABILITY
// =============================================================================

// FieldTransformer converts one field's raw text into its normalized text.
// The row argument is the whole input row and must be treated as read-only.
type FieldTransformer interface {
	TransformField(value string, row []string) (string, error)
}

// FieldTransformerFunc adapts a plain function to FieldTransformer.
type FieldTransformerFunc func(value string, row []string) (string, error)

// TransformField satisfies FieldTransformer.
func (fn FieldTransformerFunc) TransformField(value string, row []string) (string, error) {
	return fn(value, row)
}

// ColumnDependent is implemented by transforms that read columns other than
// their own. The table checks the declared indices when it is built.
type ColumnDependent interface {
	DependsOn() []int
}

// =============================================================================
// FREE INPUT
// =============================================================================

// FreeInput returns the field unchanged.
var FreeInput = FieldTransformerFunc(func(value string, _ []string) (string, error) {
	return value, nil
})

// =============================================================================
// POSTAL CODE
// =============================================================================

// PadZIP left-pads value with '0' until it is ZIPLength characters long.
// Values that are already ZIPLength or longer are returned unchanged.
//
// EXAMPLE:
//   Input:  "1"
//   Output: "00001"
func PadZIP(value string) string {
	missing := ZIPLength - utf8.RuneCountInString(value)
	if missing <= 0 {
		return value
	}
	return strings.Repeat("0", missing) + value
}

// PostalCode is the ZIP column transform.
var PostalCode = FieldTransformerFunc(func(value string, _ []string) (string, error) {
	return PadZIP(value), nil
})

// =============================================================================
// NAME
// =============================================================================

// Name upper-cases the field using the case mapping rules of Tag.
type Name struct {
	Tag language.Tag
}

// TransformField satisfies FieldTransformer.
func (n Name) TransformField(value string, _ []string) (string, error) {
	return n.upper(value), nil
}

// upper builds a fresh Caser per call; a Caser is stateful.
func (n Name) upper(value string) string {
	return cases.Upper(n.Tag).String(value)
}

// =============================================================================
// TIMESTAMP
// =============================================================================

// Timestamp parses a wall-clock time in Source and renders it in Target as
// RFC 3339 (e.g. 2024-01-02T18:04:05-05:00).
type Timestamp struct {
	Layout string
	Source *time.Location
	Target *time.Location
}

// NewTimestamp loads the fixed zone pair and returns a Timestamp transform
// for layout. An empty layout selects DefaultTimestampLayout.
func NewTimestamp(layout string) (Timestamp, error) {
	if layout == "" {
		layout = DefaultTimestampLayout
	}

	source, err := time.LoadLocation(SourceZone)
	if err != nil {
		return Timestamp{}, fmt.Errorf("failed to load source zone: %w", err)
	}

	target, err := time.LoadLocation(TargetZone)
	if err != nil {
		return Timestamp{}, fmt.Errorf("failed to load target zone: %w", err)
	}

	return Timestamp{Layout: layout, Source: source, Target: target}, nil
}

// Convert parses value in the source zone and returns the instant in the target zone.
func (t Timestamp) Convert(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(t.Layout, value, t.Source)
	if err != nil {
		return time.Time{}, &ParseError{
			Column: -1,
			Kind:   KindTimestamp,
			Value:  value,
			Reason: fmt.Sprintf("does not match layout %q", t.Layout),
		}
	}
	return parsed.In(t.Target), nil
}

// TransformField satisfies FieldTransformer.
func (t Timestamp) TransformField(value string, _ []string) (string, error) {
	converted, err := t.Convert(value)
	if err != nil {
		return "", err
	}
	return converted.Format(time.RFC3339), nil
}

// =============================================================================
// DURATION
// =============================================================================

// parseDurationDecimal parses H+:MM:SS(.fraction) into exact seconds.
func parseDurationDecimal(value string, kind ColumnKind) (decimal.Decimal, error) {
	matches := durationPattern.FindStringSubmatch(value)
	if matches == nil {
		return decimal.Zero, &ParseError{
			Column: -1,
			Kind:   kind,
			Value:  value,
			Reason: "expected H:MM:SS.fraction",
		}
	}

	// The pattern guarantees all three groups are plain decimal numbers.
	hours := decimal.RequireFromString(matches[1])
	minutes := decimal.RequireFromString(matches[2])
	seconds := decimal.RequireFromString(matches[3])

	return hours.Mul(decimal.NewFromInt(3600)).
		Add(minutes.Mul(decimal.NewFromInt(60))).
		Add(seconds), nil
}

// ParseDuration converts H+:MM:SS(.fraction) into floating-point seconds.
//
// EXAMPLE:
//   Input:  "1:02:03.5"
//   Output: 3723.5
func ParseDuration(value string) (float64, error) {
	d, err := parseDurationDecimal(value, KindUnknown)
	if err != nil {
		return 0, err
	}
	seconds, _ := d.Float64()
	return seconds, nil
}

// Duration is the FooDuration/BarDuration column transform.
var Duration = FieldTransformerFunc(func(value string, _ []string) (string, error) {
	seconds, err := ParseDuration(value)
	if err != nil {
		return "", err
	}
	return formatSeconds(seconds), nil
})

// =============================================================================
// TOTAL DURATION
// =============================================================================

// TotalDuration ignores its own field and sums the durations found at
// Sources. The sources are added exactly and the sum is rounded once, to the
// nearest millisecond, so repeated runs never accumulate floating-point drift.
type TotalDuration struct {
	Sources []int
}

// DependsOn satisfies ColumnDependent.
func (t TotalDuration) DependsOn() []int {
	return t.Sources
}

// Sum returns the total of the source durations in seconds.
func (t TotalDuration) Sum(row []string) (float64, error) {
	total := decimal.Zero
	for _, index := range t.Sources {
		if index < 0 || index >= len(row) {
			return 0, &WidthError{Got: len(row), Want: index + 1}
		}

		d, err := parseDurationDecimal(row[index], KindUnknown)
		if err != nil {
			return 0, atColumn(err, index, kindAt(index))
		}
		total = total.Add(d)
	}

	// Half away from zero, on the sum only.
	millis := total.Shift(3).Round(0)
	seconds, _ := millis.Shift(-3).Float64()
	return seconds, nil
}

// TransformField satisfies FieldTransformer.
func (t TotalDuration) TransformField(_ string, row []string) (string, error) {
	seconds, err := t.Sum(row)
	if err != nil {
		return "", err
	}
	return formatSeconds(seconds), nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatSeconds renders seconds in the shortest form that round-trips.
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// kindAt returns the declared kind at index, or KindUnknown.
func kindAt(index int) ColumnKind {
	if index < 0 || index >= Width {
		return KindUnknown
	}
	return Columns[index]
}
