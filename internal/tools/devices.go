package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/droidmcp/droidmcp/internal/service"
)

type listDevicesArgs struct{}

func listDevicesTool(deps Deps) service.StaticTool {
	return service.NewTool("list_devices",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, _ *service.ToolRequest[listDevicesArgs]) error {
			devices, err := deps.ADB.Devices(ctx)
			if err != nil {
				return fail(ctx, w, err)
			}
			if len(devices) == 0 {
				return w.AppendText("No devices connected")
			}

			selected := deps.ADB.Serial()
			var sb strings.Builder
			for i, d := range devices {
				if i > 0 {
					sb.WriteByte('\n')
				}
				fmt.Fprintf(&sb, "%s\t%s\t%s", d.Serial, d.State, d.ConnType)
				if d.Model != "" {
					fmt.Fprintf(&sb, "\tmodel:%s", d.Model)
				}
				if d.Serial == selected {
					sb.WriteString("\t(selected)")
				}
			}
			return w.AppendText(sb.String())
		},
		service.WithToolDescription("Lists the devices known to the adb server with their serial, state, and transport. The device pinned by use_device is marked."),
	)
}

type useDeviceArgs struct {
	Serial string `json:"serial,omitempty" jsonschema:"description=Device serial to pin. Empty returns to auto-selection."`
}

func useDeviceTool(deps Deps) service.StaticTool {
	return service.NewTool("use_device",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[useDeviceArgs]) error {
			serial := strings.TrimSpace(r.Args().Serial)
			if serial == "" {
				deps.ADB.UseDevice("")
				return w.AppendText("Device selection cleared; auto-selecting when exactly one device is online")
			}

			devices, err := deps.ADB.Devices(ctx)
			if err != nil {
				return fail(ctx, w, err)
			}
			for _, d := range devices {
				if d.Serial != serial {
					continue
				}
				deps.ADB.UseDevice(serial)
				if !d.IsOnline() {
					return w.AppendText(fmt.Sprintf("Selected device %s (warning: state is %q)", serial, d.State))
				}
				return w.AppendText(fmt.Sprintf("Selected device %s", serial))
			}
			return fail(ctx, w, fmt.Errorf("device not found: %s", serial))
		},
		service.WithToolDescription("Pins subsequent operations to a specific device serial. Pass an empty serial to return to auto-selection."),
	)
}

type deviceInfoArgs struct{}

func deviceInfoTool(deps Deps) service.StaticTool {
	return service.NewTool("get_device_info",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, _ *service.ToolRequest[deviceInfoArgs]) error {
			info, err := deps.ADB.Info(ctx)
			if err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(fmt.Sprintf(
				"Serial: %s\nModel: %s\nManufacturer: %s\nAndroid version: %s\nSDK: %s\nBuild: %s\nABI: %s",
				info.Serial, info.Model, info.Manufacturer, info.AndroidVersion, info.SDKVersion, info.BuildID, info.ABI))
		},
		service.WithToolDescription("Reports the selected device's model, manufacturer, Android version, SDK level, build id, and ABI."),
	)
}
