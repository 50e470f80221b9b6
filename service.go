package tablesync

import (
	"context"
	"fmt"
)

// TableService is the record-shaped remote boundary. Implementations own
// authentication, transport, and request shaping; the engine only sees
// errors classified through the RemoteError taxonomy. Batch writes must
// surface the payload-too-large signal distinctly (ErrPayloadTooLarge) so
// the transfer manager can bisect.
type TableService interface {
	// ListFields returns the remote field descriptors.
	ListFields(ctx context.Context) ([]FieldDescriptor, error)

	// PageRecords returns one page of records plus the next page token, or
	// "" when there are no further pages. Pass "" for the first page.
	PageRecords(ctx context.Context, pageToken string) ([]RemoteRecord, string, error)

	// BatchCreate creates one record per row.
	BatchCreate(ctx context.Context, rows []Row) error

	// BatchUpdate replaces the fields of existing records.
	BatchUpdate(ctx context.Context, updates []RecordUpdate) error

	// BatchDelete removes records by ID.
	BatchDelete(ctx context.Context, ids []string) error
}

// GridService is the grid-shaped remote boundary for range transfers.
type GridService interface {
	// ReadRange returns the cell values inside rng, trimmed to the occupied
	// region.
	ReadRange(ctx context.Context, rng RangeRef) ([][]interface{}, error)

	// WriteRange writes values into the rectangle described by rng.
	WriteRange(ctx context.Context, rng RangeRef, values [][]interface{}) error

	// AppendRows appends rows after the last occupied row of the sheet.
	AppendRows(ctx context.Context, sheetID string, values [][]interface{}) error

	// ClearRange blanks the rectangle described by rng.
	ClearRange(ctx context.Context, rng RangeRef) error
}

// RangeRef describes a rectangular region of a sheet by 1-based inclusive
// row and column bounds. The transfer manager recomputes bounds on every
// bisection so error reports and retries always name the exact region.
type RangeRef struct {
	SheetID  string
	StartRow int
	EndRow   int
	StartCol int
	EndCol   int
}

// String renders the A1-style form, e.g. "shtab123!A2:C500".
func (r RangeRef) String() string {
	return fmt.Sprintf("%s!%s%d:%s%d",
		r.SheetID,
		ColumnNumberToLetter(r.StartCol), r.StartRow,
		ColumnNumberToLetter(r.EndCol), r.EndRow)
}

// Validate rejects descriptors with inverted or non-positive bounds.
func (r RangeRef) Validate() error {
	if r.SheetID == "" {
		return NewConfigError("range", "sheet id is empty")
	}
	if r.StartRow < 1 || r.StartCol < 1 {
		return NewConfigError("range", fmt.Sprintf("bounds must be 1-based, got %s", r))
	}
	if r.EndRow < r.StartRow || r.EndCol < r.StartCol {
		return NewConfigError("range", fmt.Sprintf("inverted bounds in %s", r))
	}
	return nil
}

// Rows returns the number of rows covered by the range.
func (r RangeRef) Rows() int {
	return r.EndRow - r.StartRow + 1
}

// ColumnNumberToLetter converts a 1-based column number to its letter form
// (1 -> A, 26 -> Z, 27 -> AA).
func ColumnNumberToLetter(n int) string {
	result := ""
	for n > 0 {
		n--
		result = string(rune('A'+n%26)) + result
		n /= 26
	}
	if result == "" {
		return "A"
	}
	return result
}

// ColumnLetterToNumber converts a column letter form to its 1-based number
// (A -> 1, Z -> 26, AA -> 27).
func ColumnLetterToNumber(s string) int {
	result := 0
	for _, ch := range s {
		result = result*26 + int(ch-'A'+1)
	}
	return result
}
