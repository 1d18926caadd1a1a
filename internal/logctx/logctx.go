// Package logctx decorates slog records with request-scoped attributes
// carried in the context: the JSON-RPC message being served, the tool being
// invoked, and the ADB device being driven. The stdio transport installs a
// Handler around the stderr JSON handler so every log line carries the
// relevant correlation fields without plumbing them through call sites.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps another slog.Handler and enriches records from context.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if msg, ok := ctx.Value(rpcMsgKey{}).(*RPCMessage); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
			slog.String("type", msg.Type),
		))
	}
	if td, ok := ctx.Value(toolCallKey{}).(*ToolCallData); ok {
		r.AddAttrs(slog.Group("tool",
			slog.String("name", td.ToolName),
		))
	}
	if serial, ok := ctx.Value(deviceKey{}).(string); ok && serial != "" {
		r.AddAttrs(slog.String("device", serial))
	}
	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type rpcMsgKey struct{}

// RPCMessage identifies the JSON-RPC message being served.
type RPCMessage struct {
	Method string
	ID     string
	Type   string
}

// WithRPCMessage attaches JSON-RPC message data to the context.
func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsgKey{}, msg)
}

type toolCallKey struct{}

// ToolCallData identifies the tool invocation being served.
type ToolCallData struct {
	ToolName string
}

// WithToolCallData attaches tool call data to the context.
func WithToolCallData(ctx context.Context, td *ToolCallData) context.Context {
	return context.WithValue(ctx, toolCallKey{}, td)
}

type deviceKey struct{}

// WithDevice attaches the ADB device serial to the context.
func WithDevice(ctx context.Context, serial string) context.Context {
	return context.WithValue(ctx, deviceKey{}, serial)
}
