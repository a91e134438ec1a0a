package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON stores a value as a JSON document. It scans from jsonb on Postgres and
// from TEXT on sqlite.
type JSON[T any] struct {
	V T
}

// NewJSON wraps v for storage.
func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{V: v}
}

// GormDataType lets AutoMigrate create the column on either driver.
func (JSON[T]) GormDataType() string {
	return "json"
}

func (j *JSON[T]) Scan(src any) error {
	var zero T
	switch v := src.(type) {
	case nil:
		j.V = zero
		return nil
	case string:
		return j.unmarshal([]byte(v))
	case []byte:
		return j.unmarshal(v)
	default:
		return fmt.Errorf("JSON: unsupported Scan type %T", src)
	}
}

func (j JSON[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, fmt.Errorf("JSON: marshal: %w", err)
	}
	return string(b), nil
}

func (j JSON[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V)
}

func (j *JSON[T]) UnmarshalJSON(b []byte) error {
	return j.unmarshal(b)
}

func (j *JSON[T]) unmarshal(b []byte) error {
	var out T
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return fmt.Errorf("JSON: unmarshal: %w", err)
		}
	}
	j.V = out
	return nil
}
