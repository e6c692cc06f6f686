package feed

import "fmt"

// MissingColumnError a required column is absent from the header row.
// Fatal to the whole parse.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column in Excel: %s", e.Column)
}

// RowError a malformed TEI or ISSI on a single row. Collected, not fatal;
// the row is excluded from the candidate set.
type RowError struct {
	Row     int // 1-based Excel row number
	RawTEI  string
	RawISSI string
	Reason  string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: invalid value TEI=%q ISSI=%q: %s", e.Row, e.RawTEI, e.RawISSI, e.Reason)
}
