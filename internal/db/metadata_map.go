package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MetadataMap stores a free-form result/error blob in a JSONB column.
type MetadataMap map[string]any

// Scan implements sql.Scanner for reading from the database.
func (m *MetadataMap) Scan(value any) error {
	if value == nil {
		*m = MetadataMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("db.MetadataMap.Scan: expected []byte or string, got %T", value)
	}
}

// Value implements driver.Valuer for writing to the database.
func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(m))
}
