package tablesync_test

import (
	"errors"
	"fmt"
	"testing"

	tablesync "github.com/tablekit/go-tablesync"
)

func makeRows(start, count int) []tablesync.Row {
	rows := make([]tablesync.Row, 0, count)
	for i := start; i < start+count; i++ {
		rows = append(rows, tablesync.Row{Values: map[string]interface{}{
			"id":   fmt.Sprintf("row-%d", i),
			"name": fmt.Sprintf("name-%d", i),
		}})
	}
	return rows
}

func makeRecords(start, count int) []tablesync.RemoteRecord {
	records := make([]tablesync.RemoteRecord, 0, count)
	for i := start; i < start+count; i++ {
		records = append(records, tablesync.RemoteRecord{
			ID:     fmt.Sprintf("rec-%d", i),
			Fields: map[string]interface{}{"id": fmt.Sprintf("row-%d", i)},
		})
	}
	return records
}

func TestBuildPlan_Full(t *testing.T) {
	t.Run("partitions matched and unmatched", func(t *testing.T) {
		local := makeRows(0, 10)
		index := tablesync.BuildRecordIndex(makeRecords(0, 4), "id")

		plan, err := tablesync.BuildPlan(local, tablesync.SyncFull, index, "id")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToUpdate) != 4 {
			t.Errorf("ToUpdate = %d, want 4", len(plan.ToUpdate))
		}
		if len(plan.ToCreate) != 6 {
			t.Errorf("ToCreate = %d, want 6", len(plan.ToCreate))
		}
		if len(plan.ToDelete) != 0 {
			t.Errorf("ToDelete = %d, want 0", len(plan.ToDelete))
		}
	})

	t.Run("updates carry matched record IDs", func(t *testing.T) {
		local := makeRows(0, 1)
		index := tablesync.BuildRecordIndex(makeRecords(0, 1), "id")

		plan, err := tablesync.BuildPlan(local, tablesync.SyncFull, index, "id")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToUpdate) != 1 || plan.ToUpdate[0].ID != "rec-0" {
			t.Errorf("ToUpdate = %+v, want one update for rec-0", plan.ToUpdate)
		}
	})

	t.Run("no key column creates everything", func(t *testing.T) {
		local := makeRows(0, 5)

		plan, err := tablesync.BuildPlan(local, tablesync.SyncFull, tablesync.RecordIndex{}, "")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToCreate) != 5 || len(plan.ToUpdate) != 0 {
			t.Errorf("plan = create %d update %d, want create 5 update 0", len(plan.ToCreate), len(plan.ToUpdate))
		}
	})

	t.Run("row missing the key column takes the create path", func(t *testing.T) {
		local := []tablesync.Row{
			{Values: map[string]interface{}{"name": "keyless"}},
			{Values: map[string]interface{}{"id": nil, "name": "nil key"}},
		}
		index := tablesync.BuildRecordIndex(makeRecords(0, 2), "id")

		plan, err := tablesync.BuildPlan(local, tablesync.SyncFull, index, "id")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToCreate) != 2 || len(plan.ToUpdate) != 0 {
			t.Errorf("plan = create %d update %d, want create 2 update 0", len(plan.ToCreate), len(plan.ToUpdate))
		}
	})
}

func TestBuildPlan_Incremental(t *testing.T) {
	t.Run("creates only unmatched rows", func(t *testing.T) {
		local := makeRows(0, 10)
		index := tablesync.BuildRecordIndex(makeRecords(0, 7), "id")

		plan, err := tablesync.BuildPlan(local, tablesync.SyncIncremental, index, "id")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToCreate) != 3 {
			t.Errorf("ToCreate = %d, want 3", len(plan.ToCreate))
		}
		if len(plan.ToUpdate) != 0 || len(plan.ToDelete) != 0 {
			t.Errorf("plan has updates or deletes, want none")
		}
	})

	t.Run("fully matched dataset yields an empty plan", func(t *testing.T) {
		local := makeRows(0, 5)
		index := tablesync.BuildRecordIndex(makeRecords(0, 5), "id")

		plan, err := tablesync.BuildPlan(local, tablesync.SyncIncremental, index, "id")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if !plan.Empty() {
			t.Errorf("plan not empty: create %d update %d delete %d", len(plan.ToCreate), len(plan.ToUpdate), len(plan.ToDelete))
		}
	})
}

func TestBuildPlan_Overwrite(t *testing.T) {
	t.Run("deletes matched and recreates all", func(t *testing.T) {
		local := makeRows(0, 10)
		index := tablesync.BuildRecordIndex(makeRecords(0, 4), "id")

		plan, err := tablesync.BuildPlan(local, tablesync.SyncOverwrite, index, "id")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToDelete) != 4 {
			t.Errorf("ToDelete = %d, want 4", len(plan.ToDelete))
		}
		if len(plan.ToCreate) != 10 {
			t.Errorf("ToCreate = %d, want 10", len(plan.ToCreate))
		}
		if len(plan.ToUpdate) != 0 {
			t.Errorf("ToUpdate = %d, want 0", len(plan.ToUpdate))
		}
	})

	t.Run("requires a key column", func(t *testing.T) {
		_, err := tablesync.BuildPlan(makeRows(0, 1), tablesync.SyncOverwrite, tablesync.RecordIndex{}, "")
		var cfgErr *tablesync.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("BuildPlan() error = %v, want ConfigError", err)
		}
	})

	t.Run("unmatched remote records survive", func(t *testing.T) {
		local := makeRows(0, 2)
		index := tablesync.BuildRecordIndex(makeRecords(0, 5), "id")

		plan, err := tablesync.BuildPlan(local, tablesync.SyncOverwrite, index, "id")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToDelete) != 2 {
			t.Errorf("ToDelete = %d, want 2 (only matched records)", len(plan.ToDelete))
		}
	})
}

func TestBuildPlan_Clone(t *testing.T) {
	t.Run("deletes everything and recreates all local rows", func(t *testing.T) {
		local := makeRows(0, 3)
		index := tablesync.IndexByID(makeRecords(100, 5))

		plan, err := tablesync.BuildPlan(local, tablesync.SyncClone, index, "")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToDelete) != 5 {
			t.Errorf("ToDelete = %d, want 5", len(plan.ToDelete))
		}
		if len(plan.ToCreate) != 3 {
			t.Errorf("ToCreate = %d, want 3", len(plan.ToCreate))
		}
	})

	t.Run("empty local dataset still deletes everything", func(t *testing.T) {
		index := tablesync.IndexByID(makeRecords(0, 4))

		plan, err := tablesync.BuildPlan(nil, tablesync.SyncClone, index, "")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToDelete) != 4 || len(plan.ToCreate) != 0 {
			t.Errorf("plan = delete %d create %d, want delete 4 create 0", len(plan.ToDelete), len(plan.ToCreate))
		}
	})

	t.Run("records without the key column are still deleted", func(t *testing.T) {
		records := []tablesync.RemoteRecord{
			{ID: "rec-a", Fields: map[string]interface{}{"id": "row-1"}},
			{ID: "rec-b", Fields: map[string]interface{}{"name": "keyless"}},
		}
		index := tablesync.IndexByID(records)

		plan, err := tablesync.BuildPlan(nil, tablesync.SyncClone, index, "")
		if err != nil {
			t.Fatalf("BuildPlan() error = %v", err)
		}
		if len(plan.ToDelete) != 2 {
			t.Errorf("ToDelete = %d, want 2", len(plan.ToDelete))
		}
	})
}

func TestParseSyncMode(t *testing.T) {
	cases := []struct {
		in   string
		want tablesync.SyncMode
	}{
		{"full", tablesync.SyncFull},
		{"incremental", tablesync.SyncIncremental},
		{"overwrite", tablesync.SyncOverwrite},
		{"clone", tablesync.SyncClone},
	}
	for _, c := range cases {
		got, err := tablesync.ParseSyncMode(c.in)
		if err != nil {
			t.Errorf("ParseSyncMode(%q) error = %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseSyncMode(%q) = %v, want %v", c.in, got, c.want)
		}
		if got.String() != c.in {
			t.Errorf("String() = %q, want %q", got.String(), c.in)
		}
	}

	if _, err := tablesync.ParseSyncMode("bogus"); err == nil {
		t.Error("ParseSyncMode(bogus) expected error")
	}
}
