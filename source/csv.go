package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ReadCSV loads a comma-separated file. Rows may be ragged; short rows are
// padded by the header mapping, long rows are truncated to it.
func ReadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var cells [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}
		cells = append(cells, record)
	}

	return &Dataset{
		Header: header,
		Rows:   rowsFromCells(header, cells),
	}, nil
}
