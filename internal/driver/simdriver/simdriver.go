package simdriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"multicam/internal/config"
	"multicam/internal/driver"
)

// rawBits is the sensor depth of simulated frames.
const rawBits = 12

// ErrInjected is the default cause for injected faults.
var ErrInjected = errors.New("simulated fault")

// DeviceSpec describes one simulated camera.
type DeviceSpec struct {
	Serial    string
	Width     int
	Height    int
	PullDelay time.Duration

	OpenErr      error
	IdentityErr  error
	ConfigureErr error
	StartErr     error
	StopErr      error
	CloseErr     error

	// PullErr fails the PullErrAt-th pull (1-based); zero fails every pull.
	PullErr   error
	PullErrAt int
	// ConvertErr fails the ConvertErrAt-th conversion (1-based); zero fails every one.
	ConvertErr   error
	ConvertErrAt int
}

// Driver is a simulated enumeration scope.
type Driver struct {
	mu           sync.Mutex
	devices      []*Device
	closed       bool
	closeCalls   int
	EnumerateErr error
}

// New builds a driver with one device per spec, in enumeration order.
func New(specs ...DeviceSpec) *Driver {
	d := &Driver{}
	for _, spec := range specs {
		if spec.Width <= 0 {
			spec.Width = 64
		}
		if spec.Height <= 0 {
			spec.Height = 48
		}
		d.devices = append(d.devices, &Device{spec: spec})
	}
	return d
}

// FromConfig builds a driver from the [driver.sim] section.
func FromConfig(cfg config.SimDriver) *Driver {
	specs := make([]DeviceSpec, 0, len(cfg.Devices))
	for _, serial := range cfg.Devices {
		specs = append(specs, DeviceSpec{
			Serial:    serial,
			Width:     cfg.Width,
			Height:    cfg.Height,
			PullDelay: time.Duration(cfg.PullDelayMS) * time.Millisecond,
		})
	}
	return New(specs...)
}

// Enumerate returns every simulated device.
func (d *Driver) Enumerate(ctx context.Context) ([]driver.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.New("simulated driver closed")
	}
	if d.EnumerateErr != nil {
		return nil, d.EnumerateErr
	}
	out := make([]driver.Device, 0, len(d.devices))
	for _, dev := range d.devices {
		out = append(out, dev)
	}
	return out, nil
}

// Close releases the simulated system instance.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.closeCalls++
	return nil
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Devices exposes the simulated devices for auditing.
func (d *Driver) Devices() []*Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Device, len(d.devices))
	copy(out, d.devices)
	return out
}

// Device returns the simulated device with serial, or nil.
func (d *Driver) Device(serial string) *Device {
	for _, dev := range d.Devices() {
		if dev.spec.Serial == serial {
			return dev
		}
	}
	return nil
}

// Device is one simulated camera.
type Device struct {
	mu          sync.Mutex
	spec        DeviceSpec
	opened      bool
	configured  bool
	streaming   bool
	outstanding bool
	mode        driver.AcquisitionMode
	format      driver.PixelFormat
	pulls       int
	converts    int
	releases    int
	frames      int
	calls       []string
	violations  []string
}

func (d *Device) record(call string) {
	d.calls = append(d.calls, call)
}

func (d *Device) violate(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	d.violations = append(d.violations, msg)
	return errors.New(msg)
}

// Open marks the device opened.
func (d *Device) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("open")
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.spec.OpenErr != nil {
		return d.spec.OpenErr
	}
	if d.opened {
		return d.violate("%s: open while already open", d.spec.Serial)
	}
	d.opened = true
	return nil
}

// Close marks the device closed, stopping a leftover stream.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("close")
	if d.streaming {
		_ = d.violate("%s: closed while streaming", d.spec.Serial)
		d.streaming = false
	}
	d.opened = false
	d.configured = false
	return d.spec.CloseErr
}

// Identity reports the configured serial.
func (d *Device) Identity() (driver.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("identity")
	if !d.opened {
		return driver.Identity{}, d.violate("%s: identity read before open", d.spec.Serial)
	}
	if d.spec.IdentityErr != nil {
		return driver.Identity{}, d.spec.IdentityErr
	}
	return driver.Identity{Serial: d.spec.Serial}, nil
}

// Configure records the acquisition mode and pixel format.
func (d *Device) Configure(mode driver.AcquisitionMode, format driver.PixelFormat) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("configure " + mode.String() + " " + format.String())
	if !d.opened {
		return d.violate("%s: configure before open", d.spec.Serial)
	}
	if d.spec.ConfigureErr != nil {
		return d.spec.ConfigureErr
	}
	if !format.Valid() {
		return fmt.Errorf("%s: unsupported pixel format %s", d.spec.Serial, format)
	}
	d.mode = mode
	d.format = format
	d.configured = true
	return nil
}

// StartStreaming begins frame delivery.
func (d *Device) StartStreaming() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("start")
	if !d.opened || !d.configured {
		return d.violate("%s: start streaming before configure", d.spec.Serial)
	}
	if d.spec.StartErr != nil {
		return d.spec.StartErr
	}
	if d.streaming {
		return d.violate("%s: start while already streaming", d.spec.Serial)
	}
	d.streaming = true
	return nil
}

// StopStreaming ends frame delivery.
func (d *Device) StopStreaming() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("stop")
	if !d.streaming {
		return d.violate("%s: stop while not streaming", d.spec.Serial)
	}
	d.streaming = false
	if d.spec.StopErr != nil {
		return d.spec.StopErr
	}
	return nil
}

// PullFrame returns the next synthetic frame.
func (d *Device) PullFrame(ctx context.Context, timeout time.Duration) (driver.Frame, error) {
	d.mu.Lock()
	d.record("pull")
	if !d.streaming {
		err := d.violate("%s: pull while not streaming", d.spec.Serial)
		d.mu.Unlock()
		return nil, err
	}
	if d.outstanding {
		err := d.violate("%s: pull with an unreleased buffer", d.spec.Serial)
		d.mu.Unlock()
		return nil, err
	}
	d.pulls++
	pull := d.pulls
	delay := d.spec.PullDelay
	pullErr := nthFault(d.spec.PullErr, d.spec.PullErrAt, pull)
	d.mu.Unlock()

	if delay > 0 {
		if timeout > 0 && delay > timeout {
			if err := sleep(ctx, timeout); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%s: %w after %s", d.spec.Serial, driver.ErrPullTimeout, timeout)
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	if pullErr != nil {
		return nil, pullErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames++
	d.outstanding = true
	return &frame{dev: d, seq: d.frames}, nil
}

func nthFault(err error, at, n int) error {
	if err == nil {
		return nil
	}
	if at == 0 || at == n {
		return err
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Serial returns the simulated serial number.
func (d *Device) Serial() string {
	return d.spec.Serial
}

// Streaming reports whether the device is currently streaming.
func (d *Device) Streaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streaming
}

// Opened reports whether the device is open.
func (d *Device) Opened() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Outstanding reports whether a pulled frame has not been released.
func (d *Device) Outstanding() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outstanding
}

// Pulls returns how many pulls were attempted while streaming.
func (d *Device) Pulls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pulls
}

// Releases returns how many frames were released.
func (d *Device) Releases() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releases
}

// Format returns the configured pixel format.
func (d *Device) Format() driver.PixelFormat {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format
}

// Mode returns the configured acquisition mode.
func (d *Device) Mode() driver.AcquisitionMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Calls returns the recorded call history.
func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// Violations returns protocol violations observed so far.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.violations))
	copy(out, d.violations)
	return out
}

type frame struct {
	dev      *Device
	seq      int
	released bool
}

// Convert renders a diagonal gradient offset by the frame number.
func (f *frame) Convert(format driver.PixelFormat) (*driver.Image, error) {
	d := f.dev
	d.mu.Lock()
	if f.released {
		err := d.violate("%s: convert after release", d.spec.Serial)
		d.mu.Unlock()
		return nil, err
	}
	d.converts++
	convertErr := nthFault(d.spec.ConvertErr, d.spec.ConvertErrAt, d.converts)
	width, height := d.spec.Width, d.spec.Height
	d.mu.Unlock()

	if convertErr != nil {
		return nil, convertErr
	}

	const maxRaw = 1<<rawBits - 1
	samples := make([]uint16, width*height)
	span := width + height
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			samples[y*width+x] = uint16(((x+y+f.seq)%span)*maxRaw/span) & maxRaw
		}
	}
	return driver.ConvertRaw(width, height, samples, rawBits, format)
}

// Release returns the buffer to the simulated pool.
func (f *frame) Release() error {
	d := f.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("release")
	if f.released {
		return d.violate("%s: frame released twice", d.spec.Serial)
	}
	f.released = true
	d.outstanding = false
	d.releases++
	return nil
}
