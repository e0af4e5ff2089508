//go:build gstreamer

package gstdriver

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"multicam/internal/driver"
	"multicam/internal/logging"
)

var initOnce sync.Once

type gstDriver struct {
	opts   Options
	logger *slog.Logger
	closed bool
}

// New initializes GStreamer and returns a driver for the configured cameras.
func New(opts Options) (driver.Driver, error) {
	if len(opts.Cameras) == 0 {
		return nil, errors.New("gstreamer driver requires at least one [[cameras]] entry")
	}
	if opts.SourceElement == "" {
		opts.SourceElement = "aravissrc"
	}
	initOnce.Do(func() { gst.Init(nil) })
	return &gstDriver{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "gstdriver"),
	}, nil
}

// Available reports whether this binary was built with GStreamer support.
func Available() bool { return true }

func (d *gstDriver) Enumerate(ctx context.Context) ([]driver.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.closed {
		return nil, errors.New("gstreamer driver closed")
	}
	devices := make([]driver.Device, 0, len(d.opts.Cameras))
	for _, cam := range d.opts.Cameras {
		id := cam.Device
		if id == "" {
			id = cam.Serial
		}
		devices = append(devices, &gstDevice{
			serial: cam.Serial,
			id:     id,
			source: d.opts.SourceElement,
			logger: d.logger.With(logging.String(logging.FieldCameraSerial, cam.Serial)),
		})
	}
	return devices, nil
}

func (d *gstDriver) Close() error {
	d.closed = true
	return nil
}

type gstDevice struct {
	serial string
	id     string
	source string
	logger *slog.Logger

	pipeline  *gst.Pipeline
	src       *gst.Element
	filter    *gst.Element
	sink      *app.Sink
	format    driver.PixelFormat
	streaming bool
}

func (g *gstDevice) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.pipeline != nil {
		return fmt.Errorf("camera %s already open", g.serial)
	}
	pipeline, err := gst.NewPipeline("camera-" + g.serial)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	src, err := gst.NewElement(g.source)
	if err != nil {
		return fmt.Errorf("create %s: %w", g.source, err)
	}
	if err := src.SetProperty("camera-name", g.id); err != nil {
		return fmt.Errorf("set camera-name: %w", err)
	}
	filter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("create capsfilter: %w", err)
	}
	sink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("create appsink: %w", err)
	}
	_ = sink.SetProperty("sync", false)
	_ = sink.SetProperty("max-buffers", 1)
	_ = sink.SetProperty("drop", true)

	if err := pipeline.AddMany(src, filter, sink.Element); err != nil {
		return fmt.Errorf("add elements: %w", err)
	}
	if err := gst.ElementLinkMany(src, filter, sink.Element); err != nil {
		return fmt.Errorf("link elements: %w", err)
	}
	if err := pipeline.SetState(gst.StateReady); err != nil {
		return fmt.Errorf("open camera %s: %w", g.id, err)
	}
	g.pipeline, g.src, g.filter, g.sink = pipeline, src, filter, sink
	g.logger.Debug("camera pipeline ready", logging.String("device", g.id))
	return nil
}

func (g *gstDevice) Close() error {
	if g.pipeline == nil {
		return nil
	}
	err := g.pipeline.SetState(gst.StateNull)
	g.pipeline, g.src, g.filter, g.sink = nil, nil, nil, nil
	g.streaming = false
	return err
}

func (g *gstDevice) Identity() (driver.Identity, error) {
	if g.pipeline == nil {
		return driver.Identity{}, fmt.Errorf("camera %s not open", g.serial)
	}
	return driver.Identity{Serial: g.serial}, nil
}

func (g *gstDevice) Configure(mode driver.AcquisitionMode, format driver.PixelFormat) error {
	if g.pipeline == nil {
		return fmt.Errorf("camera %s not open", g.serial)
	}
	if !format.Valid() {
		return fmt.Errorf("unsupported pixel format %s", format)
	}
	caps := gst.NewCapsFromString(fmt.Sprintf("video/x-raw,format=%s", capsFormat(format.BitDepth())))
	if err := g.filter.SetProperty("caps", caps); err != nil {
		return fmt.Errorf("set caps: %w", err)
	}
	// single-frame mode keeps at most one buffer queued in the sink
	maxBuffers := 1
	if mode == driver.Continuous {
		maxBuffers = 4
	}
	if err := g.sink.SetProperty("max-buffers", maxBuffers); err != nil {
		return fmt.Errorf("set max-buffers: %w", err)
	}
	g.format = format
	return nil
}

func (g *gstDevice) StartStreaming() error {
	if g.pipeline == nil {
		return fmt.Errorf("camera %s not open", g.serial)
	}
	if err := g.pipeline.SetState(gst.StatePlaying); err != nil {
		return err
	}
	g.streaming = true
	return nil
}

func (g *gstDevice) StopStreaming() error {
	if g.pipeline == nil || !g.streaming {
		return nil
	}
	g.streaming = false
	return g.pipeline.SetState(gst.StateReady)
}

func (g *gstDevice) PullFrame(ctx context.Context, timeout time.Duration) (driver.Frame, error) {
	if !g.streaming {
		return nil, fmt.Errorf("camera %s not streaming", g.serial)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	sample := g.sink.TryPullSample(timeout)
	if sample == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if g.sink.IsEOS() {
			return nil, fmt.Errorf("camera %s: stream ended", g.serial)
		}
		return nil, fmt.Errorf("camera %s: %w after %s", g.serial, driver.ErrPullTimeout, timeout)
	}

	width, height, err := sampleSize(sample)
	if err != nil {
		return nil, err
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, fmt.Errorf("camera %s: sample without buffer", g.serial)
	}
	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	payload := make([]byte, len(data))
	copy(payload, data)
	buffer.Unmap()

	return &gstFrame{width: width, height: height, data: payload, format: g.format}, nil
}

func sampleSize(sample *gst.Sample) (int, int, error) {
	caps := sample.GetCaps()
	if caps == nil {
		return 0, 0, errors.New("sample without caps")
	}
	structure := caps.GetStructureAt(0)
	w, err := structure.GetValue("width")
	if err != nil {
		return 0, 0, fmt.Errorf("read width: %w", err)
	}
	h, err := structure.GetValue("height")
	if err != nil {
		return 0, 0, fmt.Errorf("read height: %w", err)
	}
	width, okW := w.(int)
	height, okH := h.(int)
	if !okW || !okH {
		return 0, 0, fmt.Errorf("unexpected caps size types %T x %T", w, h)
	}
	return width, height, nil
}

type gstFrame struct {
	width  int
	height int
	data   []byte
	format driver.PixelFormat
}

func (f *gstFrame) Convert(format driver.PixelFormat) (*driver.Image, error) {
	if f.data == nil {
		return nil, errors.New("frame already released")
	}
	n := f.width * f.height
	samples := make([]uint16, n)
	bits := 8
	if f.format.BytesPerPixel() == 1 {
		if len(f.data) < n {
			return nil, fmt.Errorf("short GRAY8 buffer: %d bytes", len(f.data))
		}
		for i := 0; i < n; i++ {
			samples[i] = uint16(f.data[i])
		}
	} else {
		if len(f.data) < 2*n {
			return nil, fmt.Errorf("short GRAY16 buffer: %d bytes", len(f.data))
		}
		for i := 0; i < n; i++ {
			samples[i] = binary.LittleEndian.Uint16(f.data[2*i:])
		}
		// aravis delivers Mono12 LSB-aligned
		bits = f.format.BitDepth()
	}
	return driver.ConvertRaw(f.width, f.height, samples, bits, format)
}

func (f *gstFrame) Release() error {
	f.data = nil
	return nil
}
