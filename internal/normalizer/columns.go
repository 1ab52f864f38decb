package normalizer

// ColumnKind identifies which field transform applies at a column position.
type ColumnKind int

// Declared column kinds. KindUnknown is the zero value and is never bound.
const (
	KindUnknown ColumnKind = iota
	KindTimestamp
	KindAddress
	KindZIP
	KindFullName
	KindFooDuration
	KindBarDuration
	KindTotalDuration
	KindNotes
)

var kindNames = map[ColumnKind]string{
	KindUnknown:       "Unknown",
	KindTimestamp:     "Timestamp",
	KindAddress:       "Address",
	KindZIP:           "ZIP",
	KindFullName:      "FullName",
	KindFooDuration:   "FooDuration",
	KindBarDuration:   "BarDuration",
	KindTotalDuration: "TotalDuration",
	KindNotes:         "Notes",
}

// String returns the column name used in the input header.
func (k ColumnKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Width is the number of declared columns.
const Width = 8

// Columns is the declared column order. The array length pins the row
// width at compile time.
var Columns = [Width]ColumnKind{
	KindTimestamp,
	KindAddress,
	KindZIP,
	KindFullName,
	KindFooDuration,
	KindBarDuration,
	KindTotalDuration,
	KindNotes,
}

// IndexOf returns the column index declared for kind, or -1.
func IndexOf(kind ColumnKind) int {
	for i, k := range Columns {
		if k == kind {
			return i
		}
	}
	return -1
}
