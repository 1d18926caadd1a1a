// Package tools defines the server's Android tool surface. Each tool is a
// typed-argument handler over the adb manager; captures flow through the
// artifact store so clients can re-read them as resources.
package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/droidmcp/droidmcp/internal/adb"
	"github.com/droidmcp/droidmcp/internal/artifacts"
	"github.com/droidmcp/droidmcp/internal/service"
)

// Deps carries everything the tool handlers need.
type Deps struct {
	ADB       *adb.Manager
	Artifacts *artifacts.Store
	Log       *slog.Logger

	// ShellTimeout is the default bound for execute_adb_shell_command when
	// the call does not specify one.
	ShellTimeout time.Duration

	// LogcatMaxLines is the default line cap for get_logcat.
	LogcatMaxLines int
}

// NewContainer builds the full tool set.
func NewContainer(deps Deps) *service.ToolsContainer {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.ShellTimeout <= 0 {
		deps.ShellTimeout = adb.DefaultShellTimeout
	}
	if deps.LogcatMaxLines <= 0 {
		deps.LogcatMaxLines = adb.DefaultLogcatLines
	}
	return service.NewToolsContainer(
		shellTool(deps),
		packagesTool(deps),
		packageActionIntentsTool(deps),
		screenshotTool(deps),
		uiLayoutTool(deps),
		listDevicesTool(deps),
		useDeviceTool(deps),
		deviceInfoTool(deps),
		pushFileTool(deps),
		pullFileTool(deps),
		installAPKTool(deps),
		uninstallAppTool(deps),
		logcatTool(deps),
		inputTapTool(deps),
		inputSwipeTool(deps),
		inputTextTool(deps),
		pressKeyTool(deps),
	)
}

// fail reports a domain error to the client as an isError result. Request
// cancellation propagates as a Go error so the engine can report it as such.
func fail(ctx context.Context, w service.ToolResponseWriter, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	w.SetError(true)
	return w.AppendText(err.Error())
}
