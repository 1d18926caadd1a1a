package adb

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// deviceTmpDir is world-writable on stock builds and survives without root.
const deviceTmpDir = "/data/local/tmp"

// PushFile copies a local file to remotePath on the device.
func (m *Manager) PushFile(ctx context.Context, localPath, remotePath string) error {
	if err := validRemotePath(remotePath); err != nil {
		return err
	}
	conn, err := m.Device(ctx)
	if err != nil {
		return err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer f.Close()
	if err := conn.Push(ctx, f, remotePath); err != nil {
		return fmt.Errorf("push %s to %s: %w", filepath.Base(localPath), remotePath, err)
	}
	return nil
}

// PullFile copies remotePath from the device to a local file.
func (m *Manager) PullFile(ctx context.Context, remotePath, localPath string) error {
	if err := validRemotePath(remotePath); err != nil {
		return err
	}
	conn, err := m.Device(ctx)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}
	defer f.Close()
	if err := conn.Pull(ctx, remotePath, f); err != nil {
		return fmt.Errorf("pull %s: %w", remotePath, err)
	}
	return nil
}

// PullBytes reads remotePath from the device into memory.
func (m *Manager) PullBytes(ctx context.Context, remotePath string) ([]byte, error) {
	if err := validRemotePath(remotePath); err != nil {
		return nil, err
	}
	conn, err := m.Device(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := conn.Pull(ctx, remotePath, &buf); err != nil {
		return nil, fmt.Errorf("pull %s: %w", remotePath, err)
	}
	return buf.Bytes(), nil
}

// InstallAPK pushes a local APK to the device's tmp dir and installs it with
// pm. The staged copy is removed regardless of install outcome.
func (m *Manager) InstallAPK(ctx context.Context, localPath string) (string, error) {
	conn, err := m.Device(ctx)
	if err != nil {
		return "", err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open apk: %w", err)
	}
	defer f.Close()

	staged := path.Join(deviceTmpDir, uuid.NewString()+".apk")
	if err := conn.Push(ctx, f, staged); err != nil {
		return "", fmt.Errorf("stage apk: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		_, _ = conn.Shell(cleanupCtx, "rm -f "+staged)
	}()

	res, err := m.Shell(ctx, "pm install -r "+staged, 0)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 || !strings.Contains(res.Output, "Success") {
		return "", fmt.Errorf("pm install failed: %s", res.Output)
	}
	return res.Output, nil
}

// UninstallApp removes a package from the device.
func (m *Manager) UninstallApp(ctx context.Context, pkg string) (string, error) {
	if err := validPackageName(pkg); err != nil {
		return "", err
	}
	res, err := m.Shell(ctx, "pm uninstall "+pkg, 0)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 || !strings.Contains(res.Output, "Success") {
		return "", fmt.Errorf("pm uninstall failed: %s", res.Output)
	}
	return res.Output, nil
}

// validRemotePath rejects relative paths and shell metacharacters that would
// change meaning when the path is later used in a shell command.
func validRemotePath(p string) error {
	if p == "" {
		return fmt.Errorf("empty remote path")
	}
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("remote path must be absolute: %q", p)
	}
	if strings.ContainsAny(p, " \t\n'\"`$;&|<>(){}") {
		return fmt.Errorf("remote path contains unsupported characters: %q", p)
	}
	return nil
}
