package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// IntArray stores dye ID lists as JSON text, preserving submission order.
// The canonical sorted form lives in the preset's dye_signature column.
type IntArray []int

func (a IntArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *IntArray) Scan(value interface{}) error {
	if a == nil {
		return fmt.Errorf("models.IntArray: Scan on nil pointer")
	}
	if value == nil {
		*a = []int{}
		return nil
	}

	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("models.IntArray: unsupported Scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*a = []int{}
		return nil
	}

	var arr []int
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		return fmt.Errorf("models.IntArray: %w", err)
	}
	*a = arr
	return nil
}
