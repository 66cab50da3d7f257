package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MetadataMap is an opaque string map stored as JSONB
type MetadataMap map[string]string

func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *MetadataMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MetadataMap", src)
	}

	return json.Unmarshal(raw, m)
}
