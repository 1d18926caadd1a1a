package service

import (
	"context"

	"github.com/droidmcp/droidmcp/internal/mcp"
)

// MessageWriter delivers a serialized JSON-RPC message to the connected
// client. The stdio transport supplies an implementation that owns the
// output stream.
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg []byte) error
}

// Session is the per-connection state shared with capability
// implementations. The stdio transport hosts exactly one session per
// process; the type still travels through every capability signature so
// implementations stay session-scoped.
type Session struct {
	id              string
	protocolVersion string
	clientInfo      mcp.ImplementationInfo
	writer          MessageWriter
}

// NewSession constructs a session with the negotiated protocol version and
// the client's implementation info.
func NewSession(id, protocolVersion string, clientInfo mcp.ImplementationInfo, w MessageWriter) *Session {
	return &Session{id: id, protocolVersion: protocolVersion, clientInfo: clientInfo, writer: w}
}

// SessionID returns the unique id assigned at initialize time.
func (s *Session) SessionID() string { return s.id }

// ProtocolVersion returns the negotiated MCP protocol revision.
func (s *Session) ProtocolVersion() string { return s.protocolVersion }

// ClientInfo returns the client implementation info from initialize.
func (s *Session) ClientInfo() mcp.ImplementationInfo { return s.clientInfo }

// WriteMessage sends a serialized JSON-RPC message to the client. It is the
// path notifications take out of capability code.
func (s *Session) WriteMessage(ctx context.Context, msg []byte) error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.WriteMessage(ctx, msg)
}
