// =============================================================================
// Record Normalizer - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser
//   - xlsxparser
//   - pipeline
//
// =============================================================================

package types

// =============================================================================
// RECORD TYPES
// =============================================================================

// Record is a single decoded row from the input stream.
type Record struct {
	// Ordinal is the 0-based count of rows successfully decoded before this one.
	// The header row is always ordinal 0.
	Ordinal int

	// Line is the 1-based physical input line the record starts on.
	// Zero when the source has no notion of lines.
	Line int

	// Fields contains the text fields of the row, in column order.
	Fields []string
}
