package tablesync_test

import (
	"testing"
	"time"

	tablesync "github.com/tablekit/go-tablesync"
)

func TestRow_KeyHash(t *testing.T) {
	t.Run("equal values hash equal", func(t *testing.T) {
		a := tablesync.Row{Values: map[string]interface{}{"id": "abc"}}
		b := tablesync.Row{Values: map[string]interface{}{"id": "abc", "name": "ignored"}}
		if a.KeyHash("id") != b.KeyHash("id") {
			t.Error("identical key values produced different hashes")
		}
	})

	t.Run("different values hash different", func(t *testing.T) {
		a := tablesync.Row{Values: map[string]interface{}{"id": "abc"}}
		b := tablesync.Row{Values: map[string]interface{}{"id": "abd"}}
		if a.KeyHash("id") == b.KeyHash("id") {
			t.Error("distinct key values produced equal hashes")
		}
	})

	t.Run("integral float matches its integer form", func(t *testing.T) {
		// Spreadsheet readers often surface 42 as 42.0; both must match the
		// same remote record.
		a := tablesync.Row{Values: map[string]interface{}{"id": float64(42)}}
		b := tablesync.Row{Values: map[string]interface{}{"id": int64(42)}}
		c := tablesync.Row{Values: map[string]interface{}{"id": "42"}}
		if a.KeyHash("id") != b.KeyHash("id") || b.KeyHash("id") != c.KeyHash("id") {
			t.Error("42.0, int64(42), and \"42\" hashed differently")
		}
	})

	t.Run("missing or nil key yields empty hash", func(t *testing.T) {
		missing := tablesync.Row{Values: map[string]interface{}{"name": "x"}}
		if missing.KeyHash("id") != "" {
			t.Error("missing key column produced a hash")
		}
		nilKey := tablesync.Row{Values: map[string]interface{}{"id": nil}}
		if nilKey.KeyHash("id") != "" {
			t.Error("nil key value produced a hash")
		}
		if missing.KeyHash("") != "" {
			t.Error("empty key column produced a hash")
		}
	})
}

func TestRow_Accessors(t *testing.T) {
	row := tablesync.Row{Values: map[string]interface{}{
		"name":   "Alice",
		"age":    int64(30),
		"score":  95.5,
		"active": true,
		"joined": "2024-03-15",
	}}

	t.Run("GetAsString", func(t *testing.T) {
		if got := row.GetAsString("name", ""); got != "Alice" {
			t.Errorf("GetAsString(name) = %q, want Alice", got)
		}
		if got := row.GetAsString("age", ""); got != "30" {
			t.Errorf("GetAsString(age) = %q, want 30", got)
		}
		if got := row.GetAsString("missing", "fallback"); got != "fallback" {
			t.Errorf("GetAsString(missing) = %q, want fallback", got)
		}
	})

	t.Run("GetAsInt64", func(t *testing.T) {
		if got := row.GetAsInt64("age", 0); got != 30 {
			t.Errorf("GetAsInt64(age) = %d, want 30", got)
		}
		if got := row.GetAsInt64("score", 0); got != 95 {
			t.Errorf("GetAsInt64(score) = %d, want 95", got)
		}
		if got := row.GetAsInt64("missing", -1); got != -1 {
			t.Errorf("GetAsInt64(missing) = %d, want -1", got)
		}
	})

	t.Run("GetAsFloat64", func(t *testing.T) {
		if got := row.GetAsFloat64("score", 0); got != 95.5 {
			t.Errorf("GetAsFloat64(score) = %v, want 95.5", got)
		}
	})

	t.Run("GetAsBool", func(t *testing.T) {
		if got := row.GetAsBool("active", false); got != true {
			t.Errorf("GetAsBool(active) = %v, want true", got)
		}
	})

	t.Run("GetAsTime", func(t *testing.T) {
		want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		if got := row.GetAsTime("joined", time.Time{}); !got.Equal(want) {
			t.Errorf("GetAsTime(joined) = %v, want %v", got, want)
		}
	})
}

func TestRow_Project(t *testing.T) {
	row := tablesync.Row{Values: map[string]interface{}{"a": 1, "b": 2, "c": 3}}

	got := row.Project([]string{"a", "c", "z"})
	if len(got.Values) != 2 {
		t.Fatalf("Project() kept %d columns, want 2", len(got.Values))
	}
	if _, ok := got.Values["b"]; ok {
		t.Error("Project() kept an excluded column")
	}

	// The projection is a copy.
	got.Set("a", 99)
	if row.Values["a"] != 1 {
		t.Error("Project() aliases the original row")
	}
}
