package models

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON field was present, and if so whether it was
// null. A missing field leaves Set false.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
