// Package adb drives Android devices through an adb server. A narrow Conn
// interface fronts the wire client so command plumbing, output normalization,
// and device selection stay testable against fakes.
package adb

import (
	"context"
	"io"
)

// Conn is the subset of a device connection the server exercises.
type Conn interface {
	// Serial returns the device serial as reported by the adb server.
	Serial() string

	// State returns the transport state ("device", "offline", "unauthorized").
	State() string

	// Properties returns the attributes the adb server reported for the
	// device in its device listing (product, model, device, transport_id).
	Properties() map[string]string

	// Shell runs a shell command on the device and returns its combined
	// output. The command string is passed to the device shell verbatim.
	Shell(ctx context.Context, command string) (string, error)

	// ShellBytes runs a shell command and returns raw output bytes. Used for
	// binary payloads such as screencap.
	ShellBytes(ctx context.Context, command string) ([]byte, error)

	// Push streams src to remotePath on the device.
	Push(ctx context.Context, src io.Reader, remotePath string) error

	// Pull streams remotePath from the device into dst.
	Pull(ctx context.Context, remotePath string, dst io.Writer) error
}

// Dialer lists the device connections an adb server currently knows.
type Dialer interface {
	Devices(ctx context.Context) ([]Conn, error)
}
