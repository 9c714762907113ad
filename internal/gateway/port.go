package gateway

import "io"

// SerialPorter is the minimal surface of a serial port the link needs.
// It lets tests stand in for hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}
