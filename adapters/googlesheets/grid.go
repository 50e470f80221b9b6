// Package googlesheets implements the grid-shaped table service against the
// Google Sheets API. HTTP statuses from the API are mapped onto the shared
// error taxonomy; a 413 surfaces as the payload-too-large signal that drives
// chunk bisection.
package googlesheets

import (
	"context"
	"errors"
	"fmt"

	tablesync "github.com/tablekit/go-tablesync"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Grid implements tablesync.GridService for one spreadsheet.
type Grid struct {
	service       *sheets.Service
	spreadsheetID string
}

// New creates a Google Sheets grid with the provided client options.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Grid{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
	}, nil
}

// ReadRange returns the cell values inside rng, trimmed to the occupied
// region by the API.
func (g *Grid) ReadRange(ctx context.Context, rng tablesync.RangeRef) ([][]interface{}, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, rng.String()).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("read range", err)
	}
	return resp.Values, nil
}

// WriteRange writes values into the rectangle described by rng.
func (g *Grid) WriteRange(ctx context.Context, rng tablesync.RangeRef, values [][]interface{}) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: values}
	_, err := g.service.Spreadsheets.Values.Update(g.spreadsheetID, rng.String(), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return wrapAPIError("write range", err)
	}
	return nil
}

// AppendRows appends rows after the last occupied row of the sheet.
func (g *Grid) AppendRows(ctx context.Context, sheetID string, values [][]interface{}) error {
	appendRange := fmt.Sprintf("%s!A:ZZ", sheetID)
	vr := &sheets.ValueRange{Values: values}
	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, appendRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return wrapAPIError("append rows", err)
	}
	return nil
}

// ClearRange blanks the rectangle described by rng.
func (g *Grid) ClearRange(ctx context.Context, rng tablesync.RangeRef) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	_, err := g.service.Spreadsheets.Values.Clear(g.spreadsheetID, rng.String(), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapAPIError("clear range", err)
	}
	return nil
}

// wrapAPIError lifts a googleapi error into the shared taxonomy, keeping the
// HTTP status as the classification code.
func wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &tablesync.RemoteError{
			Op:      op,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Err:     err,
		}
	}
	// Transport failures without a status are treated as unavailable.
	return &tablesync.RemoteError{Op: op, Code: 503, Message: err.Error(), Err: err}
}
