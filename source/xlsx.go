package source

import (
	"fmt"

	tablesync "github.com/tablekit/go-tablesync"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads one worksheet of an Excel workbook. An empty sheetName
// selects the first sheet.
func ReadXLSX(path, sheetName string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	} else {
		index, err := f.GetSheetIndex(sheetName)
		if err != nil {
			return nil, fmt.Errorf("resolving sheet: %w", err)
		}
		if index == -1 {
			return nil, tablesync.NewConfigError("sheet_name", fmt.Sprintf("sheet %q not found", sheetName))
		}
	}

	cells, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(cells) == 0 {
		return &Dataset{}, nil
	}

	return &Dataset{
		Header: cells[0],
		Rows:   rowsFromCells(cells[0], cells[1:]),
	}, nil
}
