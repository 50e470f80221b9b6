package tablesync_test

import (
	"testing"

	tablesync "github.com/tablekit/go-tablesync"
)

func TestColumnFilter(t *testing.T) {
	rows := []tablesync.Row{
		{Values: map[string]interface{}{"id": "1", "name": "a", "internal": "x"}},
		{Values: map[string]interface{}{"id": "2", "name": "b", "internal": "y"}},
	}

	t.Run("empty filter is the identity", func(t *testing.T) {
		filter := tablesync.ColumnFilter{KeyColumn: "id", IncludeKey: true}
		got := filter.Apply(rows)
		if len(got) != 2 || len(got[0].Values) != 3 {
			t.Errorf("identity filter changed the rows: %+v", got)
		}
	})

	t.Run("projects to listed columns", func(t *testing.T) {
		filter := tablesync.ColumnFilter{Columns: []string{"name"}}
		got := filter.Apply(rows)
		if len(got[0].Values) != 1 {
			t.Errorf("row has %d columns, want 1", len(got[0].Values))
		}
		if _, ok := got[0].Values["internal"]; ok {
			t.Error("excluded column survived the filter")
		}
	})

	t.Run("key column is folded back in", func(t *testing.T) {
		filter := tablesync.ColumnFilter{Columns: []string{"name"}, KeyColumn: "id", IncludeKey: true}
		got := filter.Apply(rows)
		if _, ok := got[0].Values["id"]; !ok {
			t.Error("key column missing from filtered row")
		}
		if len(got[0].Values) != 2 {
			t.Errorf("row has %d columns, want 2", len(got[0].Values))
		}
	})

	t.Run("key column already listed is not duplicated", func(t *testing.T) {
		filter := tablesync.ColumnFilter{Columns: []string{"id", "name"}, KeyColumn: "id", IncludeKey: true}
		got := filter.Apply(rows)
		if len(got[0].Values) != 2 {
			t.Errorf("row has %d columns, want 2", len(got[0].Values))
		}
	})
}
