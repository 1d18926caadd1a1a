package adb

import "strings"

// ConnectionType indicates how a device is connected.
type ConnectionType string

const (
	USB     ConnectionType = "usb"
	WiFi    ConnectionType = "wifi"
	Unknown ConnectionType = "unknown"
)

// Device is a point-in-time snapshot of a device known to the adb server.
type Device struct {
	Serial      string
	State       string // "device", "offline", "unauthorized", etc.
	ConnType    ConnectionType
	Model       string
	Product     string
	TransportID string
}

// IsOnline returns true if the device is in "device" state (ready).
func (d Device) IsOnline() bool {
	return d.State == "device" || d.State == "online"
}

// snapshotDevice converts a live connection into a Device snapshot.
func snapshotDevice(c Conn) Device {
	props := c.Properties()
	return Device{
		Serial:      c.Serial(),
		State:       c.State(),
		ConnType:    connTypeFromSerial(c.Serial()),
		Model:       props["model"],
		Product:     props["product"],
		TransportID: props["transport_id"],
	}
}

// connTypeFromSerial classifies the transport. TCP serials carry a host:port
// form; USB serials do not contain a colon.
func connTypeFromSerial(serial string) ConnectionType {
	if serial == "" {
		return Unknown
	}
	if strings.Contains(serial, ":") {
		return WiFi
	}
	return USB
}
