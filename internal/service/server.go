package service

import (
	"context"

	"github.com/droidmcp/droidmcp/internal/mcp"
)

// ServerOption configures the concrete ServerCapabilities built by NewServer.
type ServerOption func(*server)

type server struct {
	info         mcp.ImplementationInfo
	instructions *string

	toolsCap     ToolsCapability
	resourcesCap ResourcesCapability
	loggingCap   LoggingCapability
}

// NewServer assembles a static ServerCapabilities from functional options.
// Capabilities left unset are simply not advertised.
func NewServer(opts ...ServerOption) ServerCapabilities {
	s := &server{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithServerInfo sets the implementation info returned during initialize.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *server) { s.info = info }
}

// WithInstructions sets the human-readable instructions surfaced to clients.
func WithInstructions(instr string) ServerOption {
	return func(s *server) { s.instructions = &instr }
}

// WithToolsCapability wires the tools capability.
func WithToolsCapability(cap ToolsCapability) ServerOption {
	return func(s *server) { s.toolsCap = cap }
}

// WithResourcesCapability wires the resources capability.
func WithResourcesCapability(cap ResourcesCapability) ServerOption {
	return func(s *server) { s.resourcesCap = cap }
}

// WithLoggingCapability wires the logging capability.
func WithLoggingCapability(cap LoggingCapability) ServerOption {
	return func(s *server) { s.loggingCap = cap }
}

func (s *server) GetServerInfo(ctx context.Context, session *Session) (mcp.ImplementationInfo, error) {
	return s.info, nil
}

func (s *server) GetInstructions(ctx context.Context, session *Session) (string, bool, error) {
	if s.instructions == nil {
		return "", false, nil
	}
	return *s.instructions, true, nil
}

func (s *server) GetToolsCapability(ctx context.Context, session *Session) (ToolsCapability, bool, error) {
	if s.toolsCap == nil {
		return nil, false, nil
	}
	return s.toolsCap, true, nil
}

func (s *server) GetResourcesCapability(ctx context.Context, session *Session) (ResourcesCapability, bool, error) {
	if s.resourcesCap == nil {
		return nil, false, nil
	}
	return s.resourcesCap, true, nil
}

func (s *server) GetLoggingCapability(ctx context.Context, session *Session) (LoggingCapability, bool, error) {
	if s.loggingCap == nil {
		return nil, false, nil
	}
	return s.loggingCap, true, nil
}
