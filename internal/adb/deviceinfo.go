package adb

import (
	"context"
	"fmt"
	"strings"
)

// DeviceInfo summarizes the selected device's identity and build.
type DeviceInfo struct {
	Serial         string `json:"serial"`
	Model          string `json:"model"`
	Manufacturer   string `json:"manufacturer"`
	AndroidVersion string `json:"androidVersion"`
	SDKVersion     string `json:"sdkVersion"`
	BuildID        string `json:"buildId"`
	ABI            string `json:"abi"`
}

// Info reads the selected device's system properties.
func (m *Manager) Info(ctx context.Context) (*DeviceInfo, error) {
	conn, err := m.Device(ctx)
	if err != nil {
		return nil, err
	}
	res, err := m.Shell(ctx, "getprop", 0)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("getprop exited %d: %s", res.ExitCode, res.Output)
	}

	props := ParseGetprop(res.Output)
	return &DeviceInfo{
		Serial:         conn.Serial(),
		Model:          props["ro.product.model"],
		Manufacturer:   props["ro.product.manufacturer"],
		AndroidVersion: props["ro.build.version.release"],
		SDKVersion:     props["ro.build.version.sdk"],
		BuildID:        props["ro.build.id"],
		ABI:            props["ro.product.cpu.abi"],
	}, nil
}

// ParseGetprop parses `getprop` output lines of the form `[key]: [value]`.
func ParseGetprop(output string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, "]: [")
		if !ok {
			continue
		}
		key = strings.TrimPrefix(key, "[")
		value = strings.TrimSuffix(value, "]")
		if key != "" {
			props[key] = value
		}
	}
	return props
}
