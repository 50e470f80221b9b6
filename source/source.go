// Package source loads local tabular files into the row and grid shapes the
// sync engine consumes. The first row of every file is the header.
package source

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tablesync "github.com/tablekit/go-tablesync"
)

// Dataset is a loaded local table. Header preserves file column order; Rows
// hold typed values keyed by column name.
type Dataset struct {
	Header []string
	Rows   []tablesync.Row
}

// Options tune how a file is read.
type Options struct {
	// SheetName selects the worksheet for workbook formats. Empty means the
	// first sheet.
	SheetName string
}

// Read loads path, dispatching on its extension. Supported formats are
// .xlsx and .csv.
func Read(path string, opts Options) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, opts.SheetName)
	case ".csv":
		return ReadCSV(path)
	default:
		return nil, tablesync.NewConfigError("source", fmt.Sprintf("unsupported file format %q", filepath.Ext(path)))
	}
}

// Values renders the dataset back into a header-first matrix for the grid
// sync path.
func (d *Dataset) Values() [][]interface{} {
	out := make([][]interface{}, 0, len(d.Rows)+1)

	header := make([]interface{}, len(d.Header))
	for i, col := range d.Header {
		header[i] = col
	}
	out = append(out, header)

	for _, row := range d.Rows {
		line := make([]interface{}, len(d.Header))
		for i, col := range d.Header {
			if v, ok := row.Values[col]; ok && v != nil {
				line[i] = v
			} else {
				line[i] = ""
			}
		}
		out = append(out, line)
	}
	return out
}

// rowsFromCells converts raw string rows under a header into typed rows.
// Empty rows are skipped; cells beyond the header width are dropped.
func rowsFromCells(header []string, cells [][]string) []tablesync.Row {
	rows := make([]tablesync.Row, 0, len(cells))
	for _, raw := range cells {
		if isEmptyRow(raw) {
			continue
		}
		row := tablesync.Row{Values: make(map[string]interface{}, len(header))}
		for i, value := range raw {
			if i >= len(header) || header[i] == "" || value == "" {
				continue
			}
			row.Values[header[i]] = coerceCell(value)
		}
		rows = append(rows, row)
	}
	return rows
}

// coerceCell parses numbers and booleans out of their string form; anything
// else stays a string.
func coerceCell(value string) interface{} {
	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		if intVal := int64(floatVal); float64(intVal) == floatVal {
			return intVal
		}
		return floatVal
	}
	switch value {
	case "true", "TRUE":
		return true
	case "false", "FALSE":
		return false
	}
	return value
}

func isEmptyRow(raw []string) bool {
	for _, v := range raw {
		if v != "" {
			return false
		}
	}
	return true
}
