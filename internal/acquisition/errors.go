package acquisition

import (
	"errors"
	"fmt"

	"multicam/internal/services"
)

// DeviceError names the camera a failure belongs to. It unwraps to the
// services marker for the failure class.
type DeviceError struct {
	Serial string
	Label  string
	// Position is the 1-based enumeration index, set when the failure
	// happened before the serial number was known.
	Position int
	Op       string
	Err      error
}

func (e *DeviceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Err.Error()
}

func (e *DeviceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Camera describes the device for messages: the label when known, then the
// serial, then the enumeration position ("#2").
func (e *DeviceError) Camera() string {
	switch {
	case e.Label != "":
		return e.Label
	case e.Serial != "":
		return e.Serial
	case e.Position > 0:
		return fmt.Sprintf("#%d", e.Position)
	}
	return "unknown"
}

func newDeviceError(marker error, stage, op, serial, label string, cause error) *DeviceError {
	who := "camera"
	switch {
	case label != "" && serial != "":
		who = fmt.Sprintf("camera %s (serial %s)", label, serial)
	case serial != "":
		who = "camera serial " + serial
	case label != "":
		who = "camera " + label
	}
	return &DeviceError{
		Serial: serial,
		Label:  label,
		Op:     op,
		Err:    services.Wrap(marker, stage, op, who, cause),
	}
}

// newUnidentifiedDeviceError is newDeviceError for a camera whose serial
// could not be read; position is its 1-based enumeration index.
func newUnidentifiedDeviceError(marker error, stage, op string, position int, cause error) *DeviceError {
	return &DeviceError{
		Position: position,
		Op:       op,
		Err:      services.Wrap(marker, stage, op, fmt.Sprintf("camera #%d (serial unknown)", position), cause),
	}
}

// AsDeviceError extracts the DeviceError from err, if any.
func AsDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr, true
	}
	return nil, false
}
