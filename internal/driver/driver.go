package driver

import (
	"context"
	"errors"
	"time"
)

// ErrPullTimeout is returned by PullFrame when no frame arrived in time.
var ErrPullTimeout = errors.New("frame pull timed out")

// AcquisitionMode selects how a device delivers frames once streaming.
type AcquisitionMode int

const (
	SingleFrame AcquisitionMode = iota + 1
	Continuous
)

func (m AcquisitionMode) String() string {
	switch m {
	case SingleFrame:
		return "single-frame"
	case Continuous:
		return "continuous"
	default:
		return "unknown"
	}
}

// Identity is the stable identity a device reports once opened.
type Identity struct {
	Serial string
}

// Driver is a device enumeration scope. Close releases the system instance
// after every device was closed.
type Driver interface {
	Enumerate(ctx context.Context) ([]Device, error)
	Close() error
}

// Device is one camera handle.
type Device interface {
	Open(ctx context.Context) error
	Close() error
	Identity() (Identity, error)
	Configure(mode AcquisitionMode, format PixelFormat) error
	StartStreaming() error
	StopStreaming() error
	// PullFrame blocks until a frame is ready, timeout elapses or ctx ends.
	PullFrame(ctx context.Context, timeout time.Duration) (Frame, error)
}

// Frame is a hardware buffer on loan from the driver. Release must be called
// exactly once, whether or not Convert succeeded.
type Frame interface {
	Convert(format PixelFormat) (*Image, error)
	Release() error
}
