package tools

import (
	"context"
	"fmt"

	"github.com/droidmcp/droidmcp/internal/service"
)

type tapArgs struct {
	X int `json:"x" jsonschema:"description=X coordinate in pixels"`
	Y int `json:"y" jsonschema:"description=Y coordinate in pixels"`
}

func inputTapTool(deps Deps) service.StaticTool {
	return service.NewTool("input_tap",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[tapArgs]) error {
			args := r.Args()
			if err := deps.ADB.Tap(ctx, args.X, args.Y); err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(fmt.Sprintf("Tapped (%d, %d)", args.X, args.Y))
		},
		service.WithToolDescription("Simulates a touch at the given screen coordinates. Use get_uilayout to find element centers."),
	)
}

type swipeArgs struct {
	X1         int `json:"x1" jsonschema:"description=Start X coordinate"`
	Y1         int `json:"y1" jsonschema:"description=Start Y coordinate"`
	X2         int `json:"x2" jsonschema:"description=End X coordinate"`
	Y2         int `json:"y2" jsonschema:"description=End Y coordinate"`
	DurationMs int `json:"durationMs,omitempty" jsonschema:"description=Gesture duration in milliseconds"`
}

func inputSwipeTool(deps Deps) service.StaticTool {
	return service.NewTool("input_swipe",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[swipeArgs]) error {
			args := r.Args()
			if err := deps.ADB.Swipe(ctx, args.X1, args.Y1, args.X2, args.Y2, args.DurationMs); err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(fmt.Sprintf("Swiped (%d, %d) to (%d, %d)", args.X1, args.Y1, args.X2, args.Y2))
		},
		service.WithToolDescription("Simulates a swipe gesture between two screen coordinates."),
	)
}

type textArgs struct {
	Text string `json:"text" jsonschema:"description=Text to type into the focused field"`
}

func inputTextTool(deps Deps) service.StaticTool {
	return service.NewTool("input_text",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[textArgs]) error {
			if err := deps.ADB.TypeText(ctx, r.Args().Text); err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(fmt.Sprintf("Typed %d characters", len(r.Args().Text)))
		},
		service.WithToolDescription("Types text into the currently focused input field on the device."),
	)
}

type keyArgs struct {
	Keycode int `json:"keycode" jsonschema:"description=Android keyevent code (3=home 4=back 66=enter)"`
}

func pressKeyTool(deps Deps) service.StaticTool {
	return service.NewTool("press_key",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[keyArgs]) error {
			if err := deps.ADB.PressKey(ctx, r.Args().Keycode); err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(fmt.Sprintf("Sent keyevent %d", r.Args().Keycode))
		},
		service.WithToolDescription("Sends an Android keyevent to the device, such as home, back, or enter."),
	)
}
