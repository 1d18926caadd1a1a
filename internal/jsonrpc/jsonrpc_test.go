package jsonrpc

import (
	"encoding/json"
	"testing"
)

func TestAnyMessageClassification(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want MessageType
	}{
		{"request", `{"jsonrpc":"2.0","method":"tools/list","id":1}`, TypeRequest},
		{"request string id", `{"jsonrpc":"2.0","method":"tools/list","id":"abc"}`, TypeRequest},
		{"notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, TypeNotification},
		{"result response", `{"jsonrpc":"2.0","result":{},"id":1}`, TypeResponse},
		{"error response", `{"jsonrpc":"2.0","error":{"code":-32601,"message":"nope"},"id":1}`, TypeResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m AnyMessage
			if err := json.Unmarshal([]byte(tc.in), &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := m.Type(); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAnyMessageRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"wrong version", `{"jsonrpc":"1.0","method":"x","id":1}`},
		{"missing version", `{"method":"x","id":1}`},
		{"request with result", `{"jsonrpc":"2.0","method":"x","result":{},"id":1}`},
		{"response with both", `{"jsonrpc":"2.0","result":{},"error":{"code":1,"message":"m"},"id":1}`},
		{"response with neither", `{"jsonrpc":"2.0","id":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m AnyMessage
			if err := json.Unmarshal([]byte(tc.in), &m); err == nil {
				t.Fatalf("expected error for %s", tc.in)
			}
		})
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	var id RequestID
	if err := json.Unmarshal([]byte(`42`), &id); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if id.String() != "42" {
		t.Fatalf("got %q, want 42", id.String())
	}
	b, err := json.Marshal(&id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "42" {
		t.Fatalf("marshaled %s, want 42", b)
	}

	if err := json.Unmarshal([]byte(`"req-7"`), &id); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if id.String() != "req-7" {
		t.Fatalf("got %q, want req-7", id.String())
	}

	if err := json.Unmarshal([]byte(`true`), &id); err == nil {
		t.Fatal("expected error for boolean id")
	}
}

func TestRequestIDNilMarshalsNull(t *testing.T) {
	var id *RequestID
	b, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "null" {
		t.Fatalf("got %s, want null", b)
	}
	if !id.IsNil() {
		t.Fatal("nil id should report IsNil")
	}
}

func TestNewRequestNotification(t *testing.T) {
	req, err := NewRequest(nil, "notifications/progress", map[string]int{"progress": 1})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m AnyMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Type() != TypeNotification {
		t.Fatalf("got %s, want notification", m.Type())
	}
}
