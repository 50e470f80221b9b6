package tablesync_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	tablesync "github.com/tablekit/go-tablesync"
)

// fakeTable is an in-memory TableService that records batch call shapes.
type fakeTable struct {
	records  []tablesync.RemoteRecord
	pageSize int

	createBatches []int
	updateBatches []int
	deleteBatches []int

	createErr error
	nextID    int
}

func newFakeTable(records []tablesync.RemoteRecord) *fakeTable {
	return &fakeTable{records: records, pageSize: 500, nextID: 10000}
}

func (f *fakeTable) ListFields(ctx context.Context) ([]tablesync.FieldDescriptor, error) {
	return []tablesync.FieldDescriptor{{Name: "id", Type: 1}, {Name: "name", Type: 1}}, nil
}

func (f *fakeTable) PageRecords(ctx context.Context, pageToken string) ([]tablesync.RemoteRecord, string, error) {
	start := 0
	if pageToken != "" {
		if _, err := fmt.Sscanf(pageToken, "page-%d", &start); err != nil {
			return nil, "", fmt.Errorf("bad page token %q", pageToken)
		}
	}
	end := start + f.pageSize
	if end >= len(f.records) {
		return f.records[start:], "", nil
	}
	return f.records[start:end], fmt.Sprintf("page-%d", end), nil
}

func (f *fakeTable) BatchCreate(ctx context.Context, rows []tablesync.Row) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createBatches = append(f.createBatches, len(rows))
	for _, row := range rows {
		f.nextID++
		f.records = append(f.records, tablesync.RemoteRecord{
			ID:     fmt.Sprintf("rec-new-%d", f.nextID),
			Fields: row.Values,
		})
	}
	return nil
}

func (f *fakeTable) BatchUpdate(ctx context.Context, updates []tablesync.RecordUpdate) error {
	f.updateBatches = append(f.updateBatches, len(updates))
	return nil
}

func (f *fakeTable) BatchDelete(ctx context.Context, ids []string) error {
	f.deleteBatches = append(f.deleteBatches, len(ids))
	keep := f.records[:0]
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	for _, r := range f.records {
		if _, ok := drop[r.ID]; !ok {
			keep = append(keep, r)
		}
	}
	f.records = keep
	return nil
}

func newEngine(t *testing.T, service tablesync.TableService, cfg *tablesync.Config) *tablesync.Engine {
	t.Helper()
	ctrl := tablesync.NewRequestController()
	engine, err := tablesync.NewEngine(service, ctrl, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func baseConfig(mode tablesync.SyncMode) *tablesync.Config {
	cfg := tablesync.DefaultConfig()
	cfg.Mode = mode
	cfg.KeyColumn = "id"
	cfg.InterCallDelay = 0
	return cfg
}

func TestEngine_FullSyncBatching(t *testing.T) {
	// 1000 local rows, 400 of them matched remotely, batch size 500: one
	// update batch of 400 and two create batches of 500 and 100.
	table := newFakeTable(makeRecords(0, 400))
	engine := newEngine(t, table, baseConfig(tablesync.SyncFull))

	if err := engine.Sync(context.Background(), makeRows(0, 1000)); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(table.updateBatches) != 1 || table.updateBatches[0] != 400 {
		t.Errorf("update batches = %v, want [400]", table.updateBatches)
	}
	if len(table.createBatches) != 2 || table.createBatches[0] != 500 || table.createBatches[1] != 100 {
		t.Errorf("create batches = %v, want [500 100]", table.createBatches)
	}
	if len(table.deleteBatches) != 0 {
		t.Errorf("delete batches = %v, want none", table.deleteBatches)
	}
}

func TestEngine_IncrementalSkipsMatched(t *testing.T) {
	table := newFakeTable(makeRecords(0, 7))
	engine := newEngine(t, table, baseConfig(tablesync.SyncIncremental))

	if err := engine.Sync(context.Background(), makeRows(0, 10)); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(table.createBatches) != 1 || table.createBatches[0] != 3 {
		t.Errorf("create batches = %v, want [3]", table.createBatches)
	}
	if len(table.updateBatches) != 0 {
		t.Errorf("update batches = %v, want none", table.updateBatches)
	}
}

func TestEngine_IncrementalRerunIsNoop(t *testing.T) {
	table := newFakeTable(nil)
	engine := newEngine(t, table, baseConfig(tablesync.SyncIncremental))

	local := makeRows(0, 20)
	if err := engine.Sync(context.Background(), local); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	if err := engine.Sync(context.Background(), local); err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}

	if len(table.createBatches) != 1 {
		t.Errorf("create batches after rerun = %v, want just the first [20]", table.createBatches)
	}
	if len(table.records) != 20 {
		t.Errorf("remote records = %d, want 20 (no duplicates)", len(table.records))
	}
}

func TestEngine_OverwriteDeletesMatchedThenCreatesAll(t *testing.T) {
	table := newFakeTable(makeRecords(0, 4))
	engine := newEngine(t, table, baseConfig(tablesync.SyncOverwrite))

	if err := engine.Sync(context.Background(), makeRows(0, 10)); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(table.deleteBatches) != 1 || table.deleteBatches[0] != 4 {
		t.Errorf("delete batches = %v, want [4]", table.deleteBatches)
	}
	if len(table.createBatches) != 1 || table.createBatches[0] != 10 {
		t.Errorf("create batches = %v, want [10]", table.createBatches)
	}
	if len(table.records) != 10 {
		t.Errorf("remote records = %d, want 10", len(table.records))
	}
}

func TestEngine_CloneReplacesEverything(t *testing.T) {
	// Clone must delete records even when they lack the key column.
	records := append(makeRecords(0, 3), tablesync.RemoteRecord{
		ID:     "rec-keyless",
		Fields: map[string]interface{}{"name": "no key here"},
	})
	table := newFakeTable(records)

	cfg := baseConfig(tablesync.SyncClone)
	cfg.KeyColumn = ""
	engine := newEngine(t, table, cfg)

	if err := engine.Sync(context.Background(), makeRows(100, 5)); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(table.deleteBatches) != 1 || table.deleteBatches[0] != 4 {
		t.Errorf("delete batches = %v, want [4]", table.deleteBatches)
	}
	if len(table.records) != 5 {
		t.Errorf("remote records = %d, want 5", len(table.records))
	}
}

func TestEngine_PagesThroughRemoteState(t *testing.T) {
	table := newFakeTable(makeRecords(0, 1250))
	table.pageSize = 500
	engine := newEngine(t, table, baseConfig(tablesync.SyncFull))

	plan, err := engine.Plan(context.Background(), makeRows(0, 1250))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.ToUpdate) != 1250 || len(plan.ToCreate) != 0 {
		t.Errorf("plan = update %d create %d, want update 1250 create 0", len(plan.ToUpdate), len(plan.ToCreate))
	}
}

func TestEngine_PlanDoesNotMutate(t *testing.T) {
	table := newFakeTable(makeRecords(0, 5))
	engine := newEngine(t, table, baseConfig(tablesync.SyncOverwrite))

	if _, err := engine.Plan(context.Background(), makeRows(0, 5)); err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(table.createBatches)+len(table.updateBatches)+len(table.deleteBatches) != 0 {
		t.Error("Plan() issued write calls")
	}
	if len(table.records) != 5 {
		t.Errorf("remote records = %d, want untouched 5", len(table.records))
	}
}

func TestEngine_FailedPhaseDoesNotSuppressOthers(t *testing.T) {
	table := newFakeTable(makeRecords(0, 4))
	table.createErr = tablesync.NewRemoteError("batch create", 400, "bad field")
	engine := newEngine(t, table, baseConfig(tablesync.SyncFull))

	err := engine.Sync(context.Background(), makeRows(0, 10))
	if !errors.Is(err, tablesync.ErrInvalidInput) {
		t.Fatalf("Sync() error = %v, want invalid-input from create phase", err)
	}
	// The update phase ran despite the create failure.
	if len(table.updateBatches) != 1 || table.updateBatches[0] != 4 {
		t.Errorf("update batches = %v, want [4]", table.updateBatches)
	}
}

func TestEngine_ColumnFilterProjectsRows(t *testing.T) {
	table := newFakeTable(nil)
	cfg := baseConfig(tablesync.SyncFull)
	cfg.Columns = []string{"name"}
	engine := newEngine(t, table, cfg)

	local := []tablesync.Row{
		{Values: map[string]interface{}{"id": "row-0", "name": "a", "secret": "hidden"}},
	}
	if err := engine.Sync(context.Background(), local); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(table.records) != 1 {
		t.Fatalf("remote records = %d, want 1", len(table.records))
	}
	fields := table.records[0].Fields
	if _, ok := fields["secret"]; ok {
		t.Error("filtered column leaked to the remote store")
	}
	if _, ok := fields["id"]; !ok {
		t.Error("key column was dropped by the filter")
	}
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := tablesync.DefaultConfig()
	cfg.Mode = tablesync.SyncOverwrite // no key column

	_, err := tablesync.NewEngine(newFakeTable(nil), tablesync.NewRequestController(), cfg, zerolog.Nop())
	var cfgErr *tablesync.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("NewEngine() error = %v, want ConfigError", err)
	}
}
