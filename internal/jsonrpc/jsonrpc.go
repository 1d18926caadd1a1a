// Package jsonrpc implements the JSON-RPC 2.0 envelope used by the MCP
// stdio transport. It deliberately knows nothing about MCP semantics:
// higher layers interpret method names and params.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the only JSON-RPC version this package accepts.
const ProtocolVersion = "2.0"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	ErrorCodeParseError     ErrorCode = -32700
	ErrorCodeInvalidRequest ErrorCode = -32600
	ErrorCodeMethodNotFound ErrorCode = -32601
	ErrorCodeInvalidParams  ErrorCode = -32602
	ErrorCodeInternalError  ErrorCode = -32603
)

// Request is a JSON-RPC request (ID set) or notification (ID nil).
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// Response is a JSON-RPC response carrying exactly one of Result or Error.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// NewRequest builds a request envelope with marshaled params. A nil id
// produces a notification.
func NewRequest(id *RequestID, method string, params any) (*Request, error) {
	req := &Request{JSONRPCVersion: ProtocolVersion, Method: method, ID: id}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = b
	}
	return req, nil
}

// NewResultResponse builds a successful response for the given id.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &Response{JSONRPCVersion: ProtocolVersion, Result: b, ID: id}, nil
}

// NewErrorResponse builds an error response for the given id.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Error:          &Error{Code: code, Message: message, Data: data},
		ID:             id,
	}
}

// AnyMessage is an incoming message before classification.
type AnyMessage struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method,omitempty"`
	Params         json.RawMessage `json:"params,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// UnmarshalJSON validates JSON-RPC 2.0 structure while decoding: a message
// must be a request/notification (method set, no result/error) or a response
// (no method, exactly one of result/error).
func (m *AnyMessage) UnmarshalJSON(data []byte) error {
	type raw AnyMessage
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if r.JSONRPCVersion != ProtocolVersion {
		return fmt.Errorf("invalid JSON-RPC version: expected %q, got %q", ProtocolVersion, r.JSONRPCVersion)
	}
	hasResult := len(r.Result) > 0
	hasError := r.Error != nil
	if r.Method != "" {
		if hasResult || hasError {
			return fmt.Errorf("request message cannot carry result or error")
		}
	} else {
		if hasResult && hasError {
			return fmt.Errorf("response message cannot carry both result and error")
		}
		if !hasResult && !hasError {
			return fmt.Errorf("response message must carry result or error")
		}
	}
	*m = AnyMessage(r)
	return nil
}

// MessageType classifies an AnyMessage.
type MessageType string

const (
	TypeRequest      MessageType = "request"
	TypeNotification MessageType = "notification"
	TypeResponse     MessageType = "response"
)

// Type reports whether the message is a request, notification, or response.
func (m *AnyMessage) Type() MessageType {
	if m.Method != "" {
		if m.ID == nil {
			return TypeNotification
		}
		return TypeRequest
	}
	return TypeResponse
}

// AsRequest returns the request view of the message, or nil for responses.
func (m *AnyMessage) AsRequest() *Request {
	if m.Method == "" {
		return nil
	}
	return &Request{JSONRPCVersion: m.JSONRPCVersion, Method: m.Method, Params: m.Params, ID: m.ID}
}

// AsResponse returns the response view of the message, or nil for requests.
func (m *AnyMessage) AsResponse() *Response {
	if m.Method != "" {
		return nil
	}
	return &Response{JSONRPCVersion: m.JSONRPCVersion, Result: m.Result, Error: m.Error, ID: m.ID}
}
