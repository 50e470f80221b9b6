package tablesync

import "fmt"

// SyncMode selects how local rows reconcile against the remote store.
type SyncMode int

const (
	// SyncFull updates matched rows and creates the rest; remote-only
	// records are left untouched.
	SyncFull SyncMode = iota
	// SyncIncremental creates only rows absent from the remote store.
	SyncIncremental
	// SyncOverwrite deletes matched records and recreates every local row
	// under fresh IDs. Requires a key column.
	SyncOverwrite
	// SyncClone deletes every remote record and recreates the full local
	// dataset.
	SyncClone
)

// String returns the configuration name of the mode.
func (m SyncMode) String() string {
	switch m {
	case SyncFull:
		return "full"
	case SyncIncremental:
		return "incremental"
	case SyncOverwrite:
		return "overwrite"
	case SyncClone:
		return "clone"
	}
	return fmt.Sprintf("SyncMode(%d)", int(m))
}

// ParseSyncMode maps a configuration string to its SyncMode.
func ParseSyncMode(s string) (SyncMode, error) {
	switch s {
	case "full":
		return SyncFull, nil
	case "incremental":
		return SyncIncremental, nil
	case "overwrite":
		return SyncOverwrite, nil
	case "clone":
		return SyncClone, nil
	}
	return 0, NewConfigError("sync_mode", fmt.Sprintf("unknown mode %q", s))
}

// SyncPlan is the computed create/update/delete delta for one run. The three
// sequences are disjoint, ordered, and consumed exactly once; the plan is
// never mutated after BuildPlan returns it.
type SyncPlan struct {
	ToCreate []Row
	ToUpdate []RecordUpdate
	ToDelete []string
}

// Empty reports whether the plan contains no work.
func (p *SyncPlan) Empty() bool {
	return len(p.ToCreate) == 0 && len(p.ToUpdate) == 0 && len(p.ToDelete) == 0
}

// BuildPlan classifies local rows against the remote index according to
// mode. remoteIndex may be nil for SyncClone only when the remote side is
// known to be empty. A row whose key column is missing or nil has no key
// hash and always takes the create path.
//
// SyncOverwrite without a key column is a configuration error, detected
// here before any remote mutation.
func BuildPlan(local []Row, mode SyncMode, remoteIndex RecordIndex, keyColumn string) (*SyncPlan, error) {
	plan := &SyncPlan{}

	switch mode {
	case SyncFull:
		for _, row := range local {
			hash := row.KeyHash(keyColumn)
			if hash != "" {
				if record, ok := remoteIndex[hash]; ok {
					plan.ToUpdate = append(plan.ToUpdate, RecordUpdate{ID: record.ID, Row: row})
					continue
				}
			}
			plan.ToCreate = append(plan.ToCreate, row)
		}

	case SyncIncremental:
		for _, row := range local {
			hash := row.KeyHash(keyColumn)
			if hash != "" {
				if _, ok := remoteIndex[hash]; ok {
					continue
				}
			}
			plan.ToCreate = append(plan.ToCreate, row)
		}

	case SyncOverwrite:
		if keyColumn == "" {
			return nil, NewConfigError("key_column", "overwrite mode requires a key column")
		}
		for _, row := range local {
			hash := row.KeyHash(keyColumn)
			if hash != "" {
				if record, ok := remoteIndex[hash]; ok {
					plan.ToDelete = append(plan.ToDelete, record.ID)
				}
			}
			plan.ToCreate = append(plan.ToCreate, row)
		}

	case SyncClone:
		plan.ToDelete = remoteIndex.IDs()
		plan.ToCreate = append(plan.ToCreate, local...)

	default:
		return nil, NewConfigError("sync_mode", fmt.Sprintf("unknown mode %d", mode))
	}

	return plan, nil
}
