package tablesync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Clearing sweeps a fixed oversized region; the remote side trims it to the
// occupied area.
const (
	clearMaxRows = 500000
	clearMaxCols = 702 // column ZZ
)

// GridSyncer reconciles a local table against a grid-shaped remote boundary
// (a worksheet rather than a record store). The first row of every value
// matrix is the header. Ranges are recomputed on each bisection so the
// remote side always receives an exact rectangle.
type GridSyncer struct {
	grid     GridService
	ctrl     *RequestController
	transfer *TransferManager
	cfg      *Config
	logger   zerolog.Logger

	sheetID  string
	startRow int // 1-based origin of the table on the sheet
	startCol int
}

// NewGridSyncer builds a grid syncer. startRow and startCol locate the
// table's top-left cell; zero values default to 1.
func NewGridSyncer(grid GridService, ctrl *RequestController, cfg *Config, sheetID string, startRow, startCol int, logger zerolog.Logger) (*GridSyncer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sheetID == "" {
		return nil, NewConfigError("sheet_id", "must not be empty")
	}
	if startRow < 1 {
		startRow = 1
	}
	if startCol < 1 {
		startCol = 1
	}
	return &GridSyncer{
		grid:     grid,
		ctrl:     ctrl,
		transfer: NewTransferManager(ctrl, cfg.InterCallDelay, logger),
		cfg:      cfg,
		logger:   logger,
		sheetID:  sheetID,
		startRow: startRow,
		startCol: startCol,
	}, nil
}

// Sync applies the configured mode to values (header row first).
func (g *GridSyncer) Sync(ctx context.Context, values [][]interface{}) error {
	if len(values) == 0 {
		return nil
	}

	switch g.cfg.Mode {
	case SyncClone:
		return g.clone(ctx, values)
	case SyncIncremental:
		return g.incremental(ctx, values)
	case SyncFull:
		return g.full(ctx, values)
	case SyncOverwrite:
		return g.overwrite(ctx, values)
	}
	return NewConfigError("sync_mode", fmt.Sprintf("unknown mode %d", g.cfg.Mode))
}

// clone blanks the sheet and writes the full table.
func (g *GridSyncer) clone(ctx context.Context, values [][]interface{}) error {
	sweep := RangeRef{
		SheetID:  g.sheetID,
		StartRow: 1, EndRow: clearMaxRows,
		StartCol: 1, EndCol: clearMaxCols,
	}
	err := g.ctrl.Do(ctx, "clear range", func(ctx context.Context) error {
		return g.grid.ClearRange(ctx, sweep)
	})
	if err != nil {
		return fmt.Errorf("clearing sheet: %w", err)
	}
	return g.writeTable(ctx, values)
}

// incremental appends rows whose key is not already present. Without a key
// column every data row is appended.
func (g *GridSyncer) incremental(ctx context.Context, values [][]interface{}) error {
	if g.cfg.KeyColumn == "" {
		return g.appendRows(ctx, values[1:])
	}

	current, err := g.readCurrent(ctx)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return g.clone(ctx, values)
	}

	_, curRows := gridToRows(current)
	index := indexRowsByKey(curRows, g.cfg.KeyColumn)

	header, localRows := gridToRows(values)
	var fresh []Row
	for _, row := range localRows {
		hash := row.KeyHash(g.cfg.KeyColumn)
		if hash != "" {
			if _, ok := index[hash]; ok {
				continue
			}
		}
		fresh = append(fresh, row)
	}

	g.logger.Info().Int("append", len(fresh)).Msg("grid incremental plan")
	if len(fresh) == 0 {
		return nil
	}
	return g.appendRows(ctx, rowsToValues(header, fresh))
}

// full merges matched rows in place and appends the rest, then rewrites the
// whole table. Without a key column it degrades to clone.
func (g *GridSyncer) full(ctx context.Context, values [][]interface{}) error {
	if g.cfg.KeyColumn == "" {
		return g.clone(ctx, values)
	}

	current, err := g.readCurrent(ctx)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return g.clone(ctx, values)
	}

	curHeader, curRows := gridToRows(current)
	index := indexRowsByKey(curRows, g.cfg.KeyColumn)

	_, localRows := gridToRows(values)
	var fresh []Row
	updated := 0
	for _, row := range localRows {
		hash := row.KeyHash(g.cfg.KeyColumn)
		if hash != "" {
			if i, ok := index[hash]; ok {
				for col, v := range row.Values {
					curRows[i].Set(col, v)
				}
				updated++
				continue
			}
		}
		fresh = append(fresh, row)
	}

	g.logger.Info().Int("update", updated).Int("append", len(fresh)).Msg("grid full plan")

	if err := g.writeTable(ctx, append([][]interface{}{headerToValues(curHeader)}, rowsToValues(curHeader, curRows)...)); err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}
	return g.appendRows(ctx, rowsToValues(curHeader, fresh))
}

// overwrite drops matched rows from the current table and rewrites it with
// every local row appended, replacing matched rows without keeping their
// positions. A partial failure mid-rewrite is fail-fast and leaves the
// remote side partially modified.
func (g *GridSyncer) overwrite(ctx context.Context, values [][]interface{}) error {
	if g.cfg.KeyColumn == "" {
		return NewConfigError("key_column", "overwrite mode requires a key column")
	}

	current, err := g.readCurrent(ctx)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return g.clone(ctx, values)
	}

	curHeader, curRows := gridToRows(current)
	_, localRows := gridToRows(values)

	localKeys := make(map[string]struct{}, len(localRows))
	for _, row := range localRows {
		if hash := row.KeyHash(g.cfg.KeyColumn); hash != "" {
			localKeys[hash] = struct{}{}
		}
	}

	var kept []Row
	dropped := 0
	for _, row := range curRows {
		hash := row.KeyHash(g.cfg.KeyColumn)
		if hash != "" {
			if _, ok := localKeys[hash]; ok {
				dropped++
				continue
			}
		}
		kept = append(kept, row)
	}
	merged := append(kept, localRows...)

	g.logger.Info().Int("replace", dropped).Int("total", len(merged)).Msg("grid overwrite plan")

	sweep := RangeRef{
		SheetID:  g.sheetID,
		StartRow: 1, EndRow: clearMaxRows,
		StartCol: 1, EndCol: clearMaxCols,
	}
	if err := g.ctrl.Do(ctx, "clear range", func(ctx context.Context) error {
		return g.grid.ClearRange(ctx, sweep)
	}); err != nil {
		return fmt.Errorf("clearing sheet: %w", err)
	}

	table := append([][]interface{}{headerToValues(curHeader)}, rowsToValues(curHeader, merged)...)
	return g.writeTable(ctx, table)
}

// writeTable transfers the full matrix in column bands, each band chunked
// and bisected by rows. The two axes are independent limits: the column
// band is fixed per transfer while the row extent shrinks under bisection.
func (g *GridSyncer) writeTable(ctx context.Context, values [][]interface{}) error {
	if len(values) == 0 {
		return nil
	}
	totalCols := len(values[0])

	for colStart := 0; colStart < totalCols; colStart += g.cfg.ColumnBatchSize {
		colEnd := colStart + g.cfg.ColumnBatchSize
		if colEnd > totalCols {
			colEnd = totalCols
		}

		err := g.transfer.Transfer(ctx, "write range", len(values), g.cfg.BatchSize, func(ctx context.Context, c Chunk) error {
			rng := RangeRef{
				SheetID:  g.sheetID,
				StartRow: g.startRow + c.Start,
				EndRow:   g.startRow + c.End - 1,
				StartCol: g.startCol + colStart,
				EndCol:   g.startCol + colEnd - 1,
			}
			return g.grid.WriteRange(ctx, rng, sliceBand(values, c.Start, c.End, colStart, colEnd))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// appendRows transfers data rows to the end of the sheet, chunked and
// bisected by rows only.
func (g *GridSyncer) appendRows(ctx context.Context, rows [][]interface{}) error {
	return g.transfer.Transfer(ctx, "append rows", len(rows), g.cfg.BatchSize, func(ctx context.Context, c Chunk) error {
		return g.grid.AppendRows(ctx, g.sheetID, rows[c.Start:c.End])
	})
}

// readCurrent fetches the occupied region of the sheet from the table
// origin downward.
func (g *GridSyncer) readCurrent(ctx context.Context) ([][]interface{}, error) {
	rng := RangeRef{
		SheetID:  g.sheetID,
		StartRow: g.startRow, EndRow: clearMaxRows,
		StartCol: g.startCol, EndCol: clearMaxCols,
	}
	var current [][]interface{}
	err := g.ctrl.Do(ctx, "read range", func(ctx context.Context) error {
		var err error
		current, err = g.grid.ReadRange(ctx, rng)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reading current sheet data: %w", err)
	}
	if !hasData(current) {
		return nil, nil
	}
	return current, nil
}

// sliceBand extracts the [rowStart,rowEnd) x [colStart,colEnd) rectangle,
// padding short rows so the rectangle stays full.
func sliceBand(values [][]interface{}, rowStart, rowEnd, colStart, colEnd int) [][]interface{} {
	out := make([][]interface{}, 0, rowEnd-rowStart)
	width := colEnd - colStart
	for _, row := range values[rowStart:rowEnd] {
		band := make([]interface{}, width)
		for i := 0; i < width; i++ {
			if colStart+i < len(row) {
				band[i] = row[colStart+i]
			} else {
				band[i] = ""
			}
		}
		out = append(out, band)
	}
	return out
}

// gridToRows splits a value matrix into its header and data rows.
func gridToRows(values [][]interface{}) ([]string, []Row) {
	if len(values) == 0 {
		return nil, nil
	}
	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i] = fmt.Sprintf("%v", v)
	}

	rows := make([]Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := Row{Values: make(map[string]interface{}, len(header))}
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(raw) && raw[i] != nil {
				row.Values[col] = raw[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

// rowsToValues renders rows back into a matrix under the given header.
func rowsToValues(header []string, rows []Row) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		line := make([]interface{}, len(header))
		for i, col := range header {
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

func headerToValues(header []string) []interface{} {
	out := make([]interface{}, len(header))
	for i, col := range header {
		out[i] = col
	}
	return out
}

// indexRowsByKey maps key hashes to row positions, last-seen wins.
func indexRowsByKey(rows []Row, keyColumn string) map[string]int {
	index := make(map[string]int)
	if keyColumn == "" {
		return index
	}
	for i, row := range rows {
		if hash := row.KeyHash(keyColumn); hash != "" {
			index[hash] = i
		}
	}
	return index
}

// hasData reports whether any cell holds a non-empty value.
func hasData(values [][]interface{}) bool {
	for _, row := range values {
		for _, cell := range row {
			if cell == nil {
				continue
			}
			if s, ok := cell.(string); ok && s == "" {
				continue
			}
			return true
		}
	}
	return false
}
