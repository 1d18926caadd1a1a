package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/droidmcp/droidmcp/internal/config"
	"github.com/droidmcp/droidmcp/internal/logctx"
)

var version = "dev"

type rootFlags struct {
	configPath     string
	adbAddr        string
	serial         string
	artifactsDir   string
	logLevel       string
	shellTimeout   int
	logcatMaxLines int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "droidmcp",
		Short:         "MCP server for Android device control over adb",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to config file (default config.yaml if present)")
	pf.StringVar(&flags.adbAddr, "adb-addr", "", "adb server address (host:port)")
	pf.StringVar(&flags.serial, "serial", "", "pin operations to this device serial")
	pf.StringVar(&flags.artifactsDir, "artifacts-dir", "", "directory for screenshots and pulled files")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.IntVar(&flags.shellTimeout, "shell-timeout", 0, "shell command timeout in seconds")
	pf.IntVar(&flags.logcatMaxLines, "logcat-max-lines", 0, "maximum logcat lines per snapshot")

	cmd.AddCommand(
		newServeCmd(flags),
		newDevicesCmd(flags),
		newDoctorCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig layers CLI flags over file and environment configuration.
func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	if flags.adbAddr != "" {
		cfg.ADBAddr = flags.adbAddr
	}
	if flags.serial != "" {
		cfg.DeviceSerial = flags.serial
	}
	if flags.artifactsDir != "" {
		cfg.ArtifactsDir = flags.artifactsDir
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.shellTimeout > 0 {
		cfg.ShellTimeoutSeconds = flags.shellTimeout
	}
	if flags.logcatMaxLines > 0 {
		cfg.LogcatMaxLines = flags.logcatMaxLines
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the stderr JSON logger. Stdout carries protocol traffic,
// so nothing else may ever write there.
func newLogger(cfg config.Config) (*slog.Logger, *slog.LevelVar, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	lv := &slog.LevelVar{}
	lv.Set(level)
	handler := logctx.Handler{
		Handler: slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lv}),
	}
	return slog.New(handler), lv, nil
}
