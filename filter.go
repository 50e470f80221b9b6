package tablesync

// ColumnFilter restricts a sync run to a subset of columns. The key column
// is folded back in by default because the match logic needs it even when
// the caller did not list it.
type ColumnFilter struct {
	Columns    []string
	KeyColumn  string
	IncludeKey bool
}

// Apply projects every row onto the filter's columns. A filter without
// columns is the identity.
func (f ColumnFilter) Apply(rows []Row) []Row {
	if len(f.Columns) == 0 {
		return rows
	}

	columns := f.Columns
	if f.IncludeKey && f.KeyColumn != "" && !contains(columns, f.KeyColumn) {
		columns = append(append([]string{}, columns...), f.KeyColumn)
	}

	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = row.Project(columns)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
