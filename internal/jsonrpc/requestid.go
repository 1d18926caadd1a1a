package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// RequestID is a JSON-RPC id, which may be a string or a number on the wire.
type RequestID struct {
	value any
}

// NewRequestID wraps a string or numeric value as a RequestID. Unsupported
// types yield a nil-valued id.
func NewRequestID(value any) *RequestID {
	switch value.(type) {
	case string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return &RequestID{value: value}
	default:
		return &RequestID{}
	}
}

// String renders the id for map keys and log fields. Nil ids render empty.
func (id *RequestID) String() string {
	if id == nil || id.value == nil {
		return ""
	}
	if s, ok := id.value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", id.value)
}

// IsNil reports whether the id carries no value.
func (id *RequestID) IsNil() bool { return id == nil || id.value == nil }

func (id *RequestID) MarshalJSON() ([]byte, error) {
	if id == nil || id.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

func (id *RequestID) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if num == float64(int64(num)) {
			id.value = int64(num)
		} else {
			id.value = num
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		id.value = str
		return nil
	}
	return fmt.Errorf("JSON-RPC id must be a string or number, got: %s", string(data))
}
