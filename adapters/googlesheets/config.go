package googlesheets

import (
	tablesync "github.com/tablekit/go-tablesync"
)

// Config represents configuration specific to the Google Sheets adapter.
// Ranges passed to the grid operations name the sheet by title.
type Config struct {
	SpreadsheetID string
}

// Validate rejects configurations the adapter cannot address a spreadsheet
// with.
func (c Config) Validate() error {
	if c.SpreadsheetID == "" {
		return tablesync.NewConfigError("spreadsheet_id", "must not be empty")
	}
	return nil
}
