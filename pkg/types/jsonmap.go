package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a schemaless JSONB column used for merchant-shaped payloads
// (order customers, product data, store policies).
type JSONMap map[string]any

// Value marshals the map into JSON for Postgres.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the map.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("jsonmap: unsupported scan type %T", value)
	}

	result := make(JSONMap)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// String fetches a string value by key, tolerating missing entries.
func (m JSONMap) String(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
