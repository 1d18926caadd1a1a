package tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/droidmcp/droidmcp/internal/adb"
	"github.com/droidmcp/droidmcp/internal/mcp"
	"github.com/droidmcp/droidmcp/internal/service"
)

type screenshotArgs struct{}

// screenshotTool captures the display, saves the PNG as an artifact, and
// returns the image inline. The artifact URI lets clients re-fetch the raw
// bytes as a resource without a second capture.
func screenshotTool(deps Deps) service.StaticTool {
	return service.NewTool("get_screenshot",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, _ *service.ToolRequest[screenshotArgs]) error {
			png, err := deps.ADB.Screenshot(ctx)
			if err != nil {
				return fail(ctx, w, err)
			}

			_, uri, err := deps.Artifacts.SaveScreenshot(png)
			if err != nil {
				return fail(ctx, w, err)
			}

			if err := w.AppendBlocks(mcp.ContentBlock{
				Type:     mcp.ContentTypeImage,
				Data:     base64.StdEncoding.EncodeToString(png),
				MimeType: "image/png",
			}); err != nil {
				return err
			}
			return w.AppendText(fmt.Sprintf("Screenshot saved as %s", uri))
		},
		service.WithToolDescription("Captures a screenshot of the connected Android device and returns it as a PNG image. The capture is also stored as a resource for later reads."),
	)
}

type uiLayoutArgs struct {
	IncludeRawXML bool `json:"includeRawXml,omitempty" jsonschema:"description=Also store the raw uiautomator dump XML as a resource"`
}

func uiLayoutTool(deps Deps) service.StaticTool {
	return service.NewTool("get_uilayout",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[uiLayoutArgs]) error {
			elements, raw, err := deps.ADB.UILayout(ctx)
			if err != nil {
				return fail(ctx, w, err)
			}
			if err := w.AppendText(adb.FormatUIElements(elements)); err != nil {
				return err
			}
			if r.Args().IncludeRawXML {
				_, uri, err := deps.Artifacts.SaveFile([]byte(raw), ".xml")
				if err != nil {
					return fail(ctx, w, err)
				}
				return w.AppendText(fmt.Sprintf("UI dump saved as %s", uri))
			}
			return nil
		},
		service.WithToolDescription("Dumps the current UI accessibility hierarchy and returns the clickable elements with their text, description, resource id, bounds, and tap coordinates. Optionally stores the raw dump XML as a resource."),
	)
}
