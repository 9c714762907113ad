package gateway

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate is the gateway adapter's factory baud rate.
const DefaultBaudRate = 115200

// PortOptions describes the serial connection to the gateway adapter.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// ErrPortOptions wraps every option the adapter cannot be opened with.
var ErrPortOptions = errors.New("invalid gateway port options")

var parityModes = map[string]serial.Parity{
	"N": serial.NoParity, "NONE": serial.NoParity,
	"E": serial.EvenParity, "EVEN": serial.EvenParity,
	"O": serial.OddParity, "ODD": serial.OddParity,
}

var stopBitModes = map[int]serial.StopBits{
	1: serial.OneStopBit,
	2: serial.TwoStopBits,
}

// Normalize fills unset fields with the adapter's 8N1 defaults and
// canonicalises parity to a single letter.
func (o PortOptions) Normalize() (PortOptions, error) {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.DataBits == 0 {
		o.DataBits = 8
	}
	if o.StopBits == 0 {
		o.StopBits = 1
	}
	if o.DataBits < 5 || o.DataBits > 8 {
		return o, fmt.Errorf("%w: data bits %d not in 5..8", ErrPortOptions, o.DataBits)
	}
	if _, ok := stopBitModes[o.StopBits]; !ok {
		return o, fmt.Errorf("%w: stop bits %d not 1 or 2", ErrPortOptions, o.StopBits)
	}
	parity := strings.ToUpper(strings.TrimSpace(o.Parity))
	if parity == "" {
		parity = "N"
	}
	if _, ok := parityModes[parity]; !ok {
		return o, fmt.Errorf("%w: parity %q not N, E or O", ErrPortOptions, o.Parity)
	}
	o.Parity = parity[:1]
	return o, nil
}

// SerialMode converts the options into the mode go.bug.st/serial opens
// a port with.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	n, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	return &serial.Mode{
		BaudRate: n.BaudRate,
		DataBits: n.DataBits,
		StopBits: stopBitModes[n.StopBits],
		Parity:   parityModes[n.Parity],
	}, nil
}

// OpenSerial opens the gateway adapter at path and wraps it in a Link.
func OpenSerial(path string, opts PortOptions) (*Link[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open gateway port %s: %w", path, err)
	}

	return NewLink[serial.Port](port), nil
}
