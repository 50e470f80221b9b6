package tablesync

// RemoteRecord is the remote store's representation of one logical entity:
// an opaque record ID plus a field map. It correlates with a local Row only
// through key-hash equality.
type RemoteRecord struct {
	ID     string
	Fields map[string]interface{}
}

// RecordUpdate pairs a remote record ID with the local row that replaces its
// fields.
type RecordUpdate struct {
	ID  string
	Row Row
}

// FieldDescriptor describes one remote field. Type is the vendor's field
// type code.
type FieldDescriptor struct {
	Name string
	Type int
}

// RecordIndex maps a key hash to the single remote record bearing that key.
// It is built once per sync run by paging through all remote records.
type RecordIndex map[string]RemoteRecord

// BuildRecordIndex indexes records by the content hash of their key column.
// Records without the key column are skipped. When the remote store holds
// duplicate keys the last-seen record wins; that is a data-quality condition
// on the remote side, not an engine error.
func BuildRecordIndex(records []RemoteRecord, keyColumn string) RecordIndex {
	index := make(RecordIndex)
	if keyColumn == "" {
		return index
	}

	for _, record := range records {
		raw, ok := record.Fields[keyColumn]
		if !ok || raw == nil {
			continue
		}
		index[hashKeyValue(normalizeFieldValue(raw))] = record
	}

	return index
}

// normalizeFieldValue extracts the comparable text from a remote field value.
// Rich-text fields arrive as a list of {"text": ...} segments or a single
// such map; everything else is stringified the same way local keys are.
func normalizeFieldValue(v interface{}) string {
	switch val := v.(type) {
	case []interface{}:
		if len(val) > 0 {
			if m, ok := val[0].(map[string]interface{}); ok {
				if text, ok := m["text"].(string); ok {
					return text
				}
			}
			return stringifyKey(val[0])
		}
		return ""
	case map[string]interface{}:
		if text, ok := val["text"].(string); ok {
			return text
		}
		return stringifyKey(val)
	default:
		return stringifyKey(val)
	}
}

// IndexByID builds a RecordIndex keyed by the opaque record ID instead of a
// content hash. Clone mode uses it so records missing the key column are
// still part of the delete set.
func IndexByID(records []RemoteRecord) RecordIndex {
	index := make(RecordIndex, len(records))
	for _, record := range records {
		index[record.ID] = record
	}
	return index
}

// IDs returns every record ID in the index. Order is unspecified.
func (idx RecordIndex) IDs() []string {
	ids := make([]string, 0, len(idx))
	for _, record := range idx {
		ids = append(ids, record.ID)
	}
	return ids
}
