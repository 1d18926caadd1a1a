package adb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Selection failures. Tools surface these verbatim so a client can tell an
// empty adb server apart from an ambiguous one.
var (
	ErrNoDevices       = errors.New("no devices connected to the adb server")
	ErrMultipleDevices = errors.New("multiple devices connected; select one with use_device or configure a serial")
	ErrDeviceNotFound  = errors.New("device not found")
	ErrDeviceOffline   = errors.New("device is not in a usable state")
)

// Manager resolves "the device" for each operation. With a configured serial
// it binds to that exact device; otherwise it auto-selects when exactly one
// online device exists and refuses ambiguous or empty listings.
type Manager struct {
	dialer Dialer
	log    *slog.Logger

	mu     sync.Mutex
	serial string
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithSerial pins the manager to a device serial at construction.
func WithSerial(serial string) ManagerOption {
	return func(m *Manager) {
		m.serial = serial
	}
}

// WithManagerLogger overrides the manager logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager builds a Manager listing devices through dialer.
func NewManager(dialer Dialer, opts ...ManagerOption) *Manager {
	m := &Manager{
		dialer: dialer,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UseDevice pins subsequent operations to the given serial. An empty serial
// returns to auto-selection.
func (m *Manager) UseDevice(serial string) {
	m.mu.Lock()
	m.serial = serial
	m.mu.Unlock()
}

// Serial returns the pinned serial, or empty when auto-selecting.
func (m *Manager) Serial() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serial
}

// Devices returns snapshots of every device the adb server knows, sorted by
// serial for stable listings.
func (m *Manager) Devices(ctx context.Context) ([]Device, error) {
	conns, err := m.dialer.Devices(ctx)
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(conns))
	for _, c := range conns {
		devices = append(devices, snapshotDevice(c))
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Serial < devices[j].Serial })
	return devices, nil
}

// Device resolves the connection operations should use.
func (m *Manager) Device(ctx context.Context) (Conn, error) {
	conns, err := m.dialer.Devices(ctx)
	if err != nil {
		return nil, err
	}

	serial := m.Serial()
	if serial != "" {
		for _, c := range conns {
			if c.Serial() != serial {
				continue
			}
			if !snapshotDevice(c).IsOnline() {
				return nil, fmt.Errorf("%w: %s is %q", ErrDeviceOffline, serial, c.State())
			}
			return c, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
	}

	var online []Conn
	for _, c := range conns {
		if snapshotDevice(c).IsOnline() {
			online = append(online, c)
		}
	}
	switch len(online) {
	case 0:
		return nil, ErrNoDevices
	case 1:
		return online[0], nil
	default:
		serials := make([]string, 0, len(online))
		for _, c := range online {
			serials = append(serials, c.Serial())
		}
		sort.Strings(serials)
		return nil, fmt.Errorf("%w: %v", ErrMultipleDevices, serials)
	}
}
