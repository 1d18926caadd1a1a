package tools

import (
	"context"
	"fmt"
	"path"

	"github.com/droidmcp/droidmcp/internal/service"
)

type pushFileArgs struct {
	LocalPath  string `json:"localPath" jsonschema:"description=Path of the file on the server host"`
	RemotePath string `json:"remotePath" jsonschema:"description=Absolute destination path on the device"`
}

func pushFileTool(deps Deps) service.StaticTool {
	return service.NewTool("push_file",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[pushFileArgs]) error {
			args := r.Args()
			if err := deps.ADB.PushFile(ctx, args.LocalPath, args.RemotePath); err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(fmt.Sprintf("Pushed %s to %s", args.LocalPath, args.RemotePath))
		},
		service.WithToolDescription("Copies a file from the server host to the connected Android device."),
	)
}

type pullFileArgs struct {
	RemotePath string `json:"remotePath" jsonschema:"description=Absolute path of the file on the device"`
}

// pullFileTool pulls a device file into the artifact store rather than to a
// caller-chosen host path, keeping writes contained to the workspace.
func pullFileTool(deps Deps) service.StaticTool {
	return service.NewTool("pull_file",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[pullFileArgs]) error {
			remote := r.Args().RemotePath
			data, err := deps.ADB.PullBytes(ctx, remote)
			if err != nil {
				return fail(ctx, w, err)
			}
			_, uri, err := deps.Artifacts.SaveFile(data, path.Ext(remote))
			if err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(fmt.Sprintf("Pulled %s (%d bytes) to %s", remote, len(data), uri))
		},
		service.WithToolDescription("Pulls a file from the connected Android device into the artifact store and returns its resource URI."),
	)
}

type installAPKArgs struct {
	LocalPath string `json:"localPath" jsonschema:"description=Path of the APK on the server host"`
}

func installAPKTool(deps Deps) service.StaticTool {
	return service.NewTool("install_apk",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[installAPKArgs]) error {
			out, err := deps.ADB.InstallAPK(ctx, r.Args().LocalPath)
			if err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(out)
		},
		service.WithToolDescription("Installs an APK from the server host onto the connected Android device, replacing an existing installation."),
	)
}

type uninstallAppArgs struct {
	PackageName string `json:"packageName" jsonschema:"description=Package name to uninstall"`
}

func uninstallAppTool(deps Deps) service.StaticTool {
	return service.NewTool("uninstall_app",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[uninstallAppArgs]) error {
			out, err := deps.ADB.UninstallApp(ctx, r.Args().PackageName)
			if err != nil {
				return fail(ctx, w, err)
			}
			return w.AppendText(out)
		},
		service.WithToolDescription("Uninstalls a package from the connected Android device."),
	)
}
