package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/droidmcp/droidmcp/internal/service"
)

type packagesArgs struct {
	ThirdPartyOnly bool `json:"thirdPartyOnly,omitempty" jsonschema:"description=List only user-installed packages"`
	IncludePaths   bool `json:"includePaths,omitempty" jsonschema:"description=Append each package's APK path as name=path"`
}

func packagesTool(deps Deps) service.StaticTool {
	return service.NewTool("get_packages",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[packagesArgs]) error {
			pkgs, err := deps.ADB.Packages(ctx, r.Args().ThirdPartyOnly, r.Args().IncludePaths)
			if err != nil {
				return fail(ctx, w, err)
			}
			if len(pkgs) == 0 {
				return w.AppendText("No packages found")
			}
			return w.AppendText(strings.Join(pkgs, "\n"))
		},
		service.WithToolDescription("Lists package names installed on the connected Android device, one per line."),
	)
}

type packageActionIntentsArgs struct {
	PackageName string `json:"packageName" jsonschema:"description=Package to inspect, e.g. com.android.settings"`
}

func packageActionIntentsTool(deps Deps) service.StaticTool {
	return service.NewTool("get_package_action_intents",
		func(ctx context.Context, _ *service.Session, w service.ToolResponseWriter, r *service.ToolRequest[packageActionIntentsArgs]) error {
			actions, err := deps.ADB.PackageActionIntents(ctx, r.Args().PackageName)
			if err != nil {
				return fail(ctx, w, err)
			}
			if len(actions) == 0 {
				return w.AppendText(fmt.Sprintf("No intent actions found for package %s", r.Args().PackageName))
			}
			return w.AppendText(strings.Join(actions, "\n"))
		},
		service.WithToolDescription("Lists the intent actions declared by a package's components, extracted from the package manager dump."),
	)
}
