package tablesync

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is one row of the local dataset: a column name to value mapping.
// Values are the scalar types produced by the source readers (string, int64,
// float64, bool). Rows are not mutated after they are read for the duration
// of a sync run.
type Row struct {
	Values map[string]interface{}
}

// KeyHash computes the content fingerprint of the row's key column. It
// returns "" when the key column is unset, missing from the row, or nil;
// such rows never match a remote record.
func (r Row) KeyHash(keyColumn string) string {
	if keyColumn == "" {
		return ""
	}
	v, ok := r.Values[keyColumn]
	if !ok || v == nil {
		return ""
	}
	return hashKeyValue(stringifyKey(v))
}

// hashKeyValue digests a stringified key value. The digest only serves as a
// stable identity token, matching the hashes stored in a RecordIndex.
func hashKeyValue(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// stringifyKey renders a key value the same way for local rows and remote
// records so the two sides hash identically.
func stringifyKey(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		// Integral floats print without a fraction so "42" and 42.0 match.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// GetAsString returns the value as string or defaultValue if not found.
func (r Row) GetAsString(col string, defaultValue string) string {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return defaultValue
	}

	switch val := v.(type) {
	case string:
		return val
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// GetAsInt64 returns the value as int64 or defaultValue if not found.
func (r Row) GetAsInt64(col string, defaultValue int64) int64 {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetAsFloat64 returns the value as float64 or defaultValue if not found.
func (r Row) GetAsFloat64(col string, defaultValue float64) float64 {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetAsBool returns the value as bool or defaultValue if not found.
func (r Row) GetAsBool(col string, defaultValue bool) bool {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "1"
	case int, int64:
		return val != 0
	case float64:
		return val != 0
	}
	return defaultValue
}

// GetAsTime returns the value as time.Time or defaultValue if not found.
func (r Row) GetAsTime(col string, defaultValue time.Time) time.Time {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		formats := []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, val); err == nil {
				return t
			}
		}
	}
	return defaultValue
}

// Set stores a value, allocating the map on first use.
func (r *Row) Set(col string, value interface{}) {
	if r.Values == nil {
		r.Values = make(map[string]interface{})
	}
	r.Values[col] = value
}

// Project returns a copy of the row restricted to the given columns. Columns
// absent from the row are skipped.
func (r Row) Project(columns []string) Row {
	out := Row{Values: make(map[string]interface{}, len(columns))}
	for _, col := range columns {
		if v, ok := r.Values[col]; ok {
			out.Values[col] = v
		}
	}
	return out
}
