package tools

import (
	"context"

	"github.com/droidmcp/droidmcp/internal/service"
)

type logcatArgs struct {
	Filter   string `json:"filter,omitempty" jsonschema:"description=tag:priority filter expression such as ActivityManager:I *:S"`
	MaxLines int    `json:"maxLines,omitempty" jsonschema:"description=Maximum number of recent lines to return (default 200)"`
}

func logcatTool(deps Deps) service.StaticTool {
	return service.NewTool("get_logcat",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[logcatArgs]) error {
			args := r.Args()
			maxLines := deps.LogcatMaxLines
			if args.MaxLines > 0 {
				maxLines = args.MaxLines
			}
			out, err := deps.ADB.Logcat(ctx, args.Filter, maxLines)
			if err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(out)
		},
		service.WithToolDescription("Returns a snapshot of the device log without blocking. Accepts a logcat tag:priority filter and a line cap."),
	)
}
