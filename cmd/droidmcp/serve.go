package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/droidmcp/droidmcp/internal/adb"
	"github.com/droidmcp/droidmcp/internal/artifacts"
	"github.com/droidmcp/droidmcp/internal/config"
	"github.com/droidmcp/droidmcp/internal/mcp"
	"github.com/droidmcp/droidmcp/internal/service"
	"github.com/droidmcp/droidmcp/internal/stdio"
	"github.com/droidmcp/droidmcp/internal/tools"
)

const serverInstructions = "Controls an Android device attached to the local adb server. " +
	"Use list_devices and use_device to pick a device when more than one is connected. " +
	"Screenshots and pulled files are stored as artifact:// resources."

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log, levelVar, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := buildServer(cfg, log, levelVar)
			if err != nil {
				return err
			}

			handler := stdio.NewHandler(srv, stdio.WithLogger(log))
			log.InfoContext(ctx, "server.start",
				slog.String("version", version),
				slog.String("adb_addr", cfg.ADBAddr),
				slog.String("artifacts_dir", cfg.ArtifactsDir))

			err = handler.Serve(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.ErrorContext(ctx, "server.stop", slog.String("err", err.Error()))
				return err
			}
			log.InfoContext(ctx, "server.stop")
			return nil
		},
	}
}

func buildServer(cfg config.Config, log *slog.Logger, levelVar *slog.LevelVar) (service.ServerCapabilities, error) {
	dialer, err := adb.NewServerDialer(cfg.ADBAddr)
	if err != nil {
		return nil, err
	}
	manager := adb.NewManager(dialer,
		adb.WithSerial(cfg.DeviceSerial),
		adb.WithManagerLogger(log))

	store, err := artifacts.NewStore(cfg.ArtifactsDir, artifacts.WithStoreLogger(log))
	if err != nil {
		return nil, err
	}

	container := tools.NewContainer(tools.Deps{
		ADB:            manager,
		Artifacts:      store,
		Log:            log,
		ShellTimeout:   cfg.ShellTimeout(),
		LogcatMaxLines: cfg.LogcatMaxLines,
	})

	return service.NewServer(
		service.WithServerInfo(mcp.ImplementationInfo{Name: "droidmcp", Version: version}),
		service.WithInstructions(serverInstructions),
		service.WithToolsCapability(container),
		service.WithResourcesCapability(store),
		service.WithLoggingCapability(service.NewSlogLevelVarLogging(levelVar)),
	), nil
}
