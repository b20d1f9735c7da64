package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Well-known extra data keys.
const (
	// ExtraDataKeyVVMStatus carries the vaccine vial monitor status of a
	// line item. It participates in duplicate transaction detection.
	ExtraDataKeyVVMStatus = "vvmStatus"
)

// ExtraData holds arbitrary string tags attached to a line item, stored as
// JSONB. Keys the system interprets are listed above; everything else is
// passed through untouched.
type ExtraData map[string]string

// Get returns the value for key, or the empty string if absent.
func (e ExtraData) Get(key string) string {
	if e == nil {
		return ""
	}
	return e[key]
}

// Value implements driver.Valuer for JSONB storage.
func (e ExtraData) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB storage.
func (e *ExtraData) Scan(src interface{}) error {
	if src == nil {
		*e = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported extra data type %T", src)
	}
	return json.Unmarshal(raw, e)
}
