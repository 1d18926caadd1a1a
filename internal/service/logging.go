package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/droidmcp/droidmcp/internal/mcp"
)

// ErrInvalidLoggingLevel indicates a level outside the protocol-defined set.
var ErrInvalidLoggingLevel = errors.New("invalid logging level")

// NewSlogLevelVarLogging returns a LoggingCapability that maps MCP logging
// levels onto a slog.LevelVar, adjusting process-wide verbosity when the
// handler chain shares the same LevelVar.
func NewSlogLevelVarLogging(lv *slog.LevelVar) LoggingCapability {
	return &slogLevelVarLogging{lv: lv}
}

type slogLevelVarLogging struct{ lv *slog.LevelVar }

func (l *slogLevelVarLogging) SetLevel(ctx context.Context, _ *Session, level mcp.LoggingLevel) error {
	if l == nil || l.lv == nil {
		return nil
	}
	if !mcp.IsValidLoggingLevel(level) {
		return ErrInvalidLoggingLevel
	}
	var slogLevel slog.Level
	switch level {
	case mcp.LoggingLevelDebug:
		slogLevel = slog.LevelDebug
	case mcp.LoggingLevelInfo, mcp.LoggingLevelNotice:
		slogLevel = slog.LevelInfo
	case mcp.LoggingLevelWarning:
		slogLevel = slog.LevelWarn
	default:
		// error and above all map to slog error
		slogLevel = slog.LevelError
	}
	l.lv.Set(slogLevel)
	return nil
}
