package acquisition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"multicam/internal/devicelock"
	"multicam/internal/driver"
	"multicam/internal/imagekey"
	"multicam/internal/layout"
	"multicam/internal/logging"
	"multicam/internal/registry"
	"multicam/internal/services"
)

// DefaultPullTimeout bounds a single frame pull when Options leaves it unset.
const DefaultPullTimeout = 5 * time.Second

// Options wires a Session to its collaborators.
type Options struct {
	Driver      driver.Driver
	Registry    *registry.Registry
	Layout      *layout.Manager
	Locker      *devicelock.Locker
	OutputDir   string
	PullTimeout time.Duration
	Logger      *slog.Logger
}

// Camera is an initialized device as seen by callers.
type Camera struct {
	Serial string
	Label  string
}

// CapturedImage is a converted frame owned by the session's caller.
type CapturedImage struct {
	Key        imagekey.Key
	Serial     string
	Image      *driver.Image
	CapturedAt time.Time
}

// CaptureRound is the result of one synchronized capture.
type CaptureRound struct {
	Sequence int
	Images   map[imagekey.Key]*CapturedImage
}

type managedDevice struct {
	dev       driver.Device
	serial    string
	label     string
	lock      *devicelock.Lock
	streaming bool
}

// Session owns the opened cameras between Initialize and Teardown.
type Session struct {
	drv         driver.Driver
	registry    *registry.Registry
	layouts     *layout.Manager
	locker      *devicelock.Locker
	outputDir   string
	pullTimeout time.Duration
	logger      *slog.Logger

	devices     []*managedDevice
	format      driver.PixelFormat
	initialized bool
	closed      bool
}

// New builds an idle session.
func New(opts Options) (*Session, error) {
	if opts.Driver == nil {
		return nil, errors.New("acquisition session requires a driver")
	}
	if opts.Layout == nil {
		opts.Layout = layout.NewManager(nil)
	}
	if opts.PullTimeout <= 0 {
		opts.PullTimeout = DefaultPullTimeout
	}
	return &Session{
		drv:         opts.Driver,
		registry:    opts.Registry,
		layouts:     opts.Layout,
		locker:      opts.Locker,
		outputDir:   opts.OutputDir,
		pullTimeout: opts.PullTimeout,
		logger:      logging.NewComponentLogger(opts.Logger, "session"),
	}, nil
}

// Initialize opens, identifies and configures every enumerated camera, then
// creates the run layout. On any failure the cameras opened so far are
// closed again and no run folder remains from this call.
func (s *Session) Initialize(ctx context.Context, format driver.PixelFormat, policy registry.Policy) (layout.RunLayout, []driver.Identity, error) {
	if s.closed {
		return layout.RunLayout{}, nil, services.Wrap(services.ErrDeviceInit, "initialize", "", "session already torn down", nil)
	}
	if s.initialized {
		return layout.RunLayout{}, nil, services.Wrap(services.ErrDeviceInit, "initialize", "", "session already initialized", nil)
	}
	if !format.Valid() {
		return layout.RunLayout{}, nil, services.Wrap(services.ErrInvalidInput, "initialize", "", fmt.Sprintf("pixel format %s", format), nil)
	}
	ctx = services.WithStage(ctx, "initialize")
	logger := logging.WithContext(ctx, s.logger)

	devs, err := s.drv.Enumerate(ctx)
	if err != nil {
		return layout.RunLayout{}, nil, services.Wrap(services.ErrDeviceInit, "initialize", "enumerate", "", err)
	}
	if len(devs) == 0 {
		return layout.RunLayout{}, nil, services.Wrap(services.ErrNoDevicesFound, "initialize", "enumerate", "driver reported no cameras", nil)
	}
	logger.Info("cameras detected", logging.Int("count", len(devs)))

	for i, dev := range devs {
		if err := s.openDevice(ctx, dev, i+1, format); err != nil {
			s.unwind(logger)
			return layout.RunLayout{}, nil, err
		}
	}

	serials := make([]string, len(s.devices))
	for i, md := range s.devices {
		serials[i] = md.serial
	}
	labels, err := s.registry.Resolve(policy, serials)
	if err != nil {
		s.unwind(logger)
		return layout.RunLayout{}, nil, err
	}
	for i, md := range s.devices {
		md.label = labels[i]
	}

	runLayout, err := s.layouts.Create(s.outputDir, labels)
	if err != nil {
		s.unwind(logger)
		return layout.RunLayout{}, nil, err
	}

	identities := make([]driver.Identity, len(s.devices))
	for i, md := range s.devices {
		identities[i] = driver.Identity{Serial: md.serial}
		logger.Debug("camera ready", logging.Args(logging.Camera(md.serial, md.label)...)...)
	}
	s.format = format
	s.initialized = true
	logger.Info("session initialized",
		logging.Int("cameras", len(s.devices)),
		logging.String("pixel_format", format.String()),
		logging.String("naming", string(policy)),
		logging.String("run_root", runLayout.Root),
	)
	return runLayout, identities, nil
}

// openDevice opens one camera and adds it to the managed set. The device is
// tracked as soon as Open succeeds so unwinding closes it. position is the
// 1-based enumeration index used to name the camera until its serial is read.
func (s *Session) openDevice(ctx context.Context, dev driver.Device, position int, format driver.PixelFormat) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrDeviceInit, "initialize", "open", "interrupted", err)
	}
	if err := dev.Open(ctx); err != nil {
		return newUnidentifiedDeviceError(services.ErrDeviceInit, "initialize", "open", position, err)
	}
	md := &managedDevice{dev: dev}
	s.devices = append(s.devices, md)

	identity, err := dev.Identity()
	if err != nil {
		return newUnidentifiedDeviceError(services.ErrDeviceInit, "initialize", "read identity", position, err)
	}
	serial := registry.NormalizeSerial(identity.Serial)
	md.serial = serial
	if serial == "" {
		return newUnidentifiedDeviceError(services.ErrDeviceInit, "initialize", "read identity", position, errors.New("empty serial number"))
	}

	lock, err := s.locker.Acquire(serial)
	if err != nil {
		return newDeviceError(services.ErrDeviceInit, "initialize", "lock", serial, "", err)
	}
	md.lock = lock

	if err := dev.Configure(driver.SingleFrame, format); err != nil {
		return newDeviceError(services.ErrDeviceInit, "initialize", "configure", serial, "", err)
	}
	return nil
}

// CaptureRound pulls one frame from every camera. Streaming is stopped on
// every camera before returning, whether or not the round succeeded. A round
// is not interruptible once started: cancellation of ctx is ignored and each
// pull is bounded by the pull timeout instead.
func (s *Session) CaptureRound(ctx context.Context, sequence int) (CaptureRound, error) {
	if !s.initialized || s.closed {
		return CaptureRound{}, services.Wrap(services.ErrCapture, "capture", "", "session not initialized", nil)
	}
	if sequence < 1 {
		return CaptureRound{}, services.Wrap(services.ErrInvalidInput, "capture", "", fmt.Sprintf("sequence %d", sequence), nil)
	}
	ctx = services.WithRound(services.WithStage(context.WithoutCancel(ctx), "capture"), sequence)
	logger := logging.WithContext(ctx, s.logger)

	round := CaptureRound{Sequence: sequence, Images: make(map[imagekey.Key]*CapturedImage, len(s.devices))}
	err := s.captureAll(ctx, sequence, round.Images)
	if stopErr := s.stopStreaming(logger); err == nil {
		err = stopErr
	}
	if err != nil {
		return CaptureRound{}, err
	}
	logger.Debug("round captured", logging.Int("images", len(round.Images)))
	return round, nil
}

func (s *Session) captureAll(ctx context.Context, sequence int, images map[imagekey.Key]*CapturedImage) error {
	for _, md := range s.devices {
		if err := md.dev.StartStreaming(); err != nil {
			return newDeviceError(services.ErrCapture, "capture", "start streaming", md.serial, md.label, err)
		}
		md.streaming = true
	}
	for _, md := range s.devices {
		img, err := s.captureOne(services.WithCamera(ctx, md.serial), md, sequence)
		if err != nil {
			return err
		}
		if _, dup := images[img.Key]; dup {
			return newDeviceError(services.ErrCapture, "capture", "store", md.serial, md.label,
				fmt.Errorf("duplicate image key %s", img.Key))
		}
		images[img.Key] = img
	}
	return nil
}

// captureOne pulls, converts and releases a single frame.
func (s *Session) captureOne(ctx context.Context, md *managedDevice, sequence int) (img *CapturedImage, err error) {
	frame, err := md.dev.PullFrame(ctx, s.pullTimeout)
	if err != nil {
		if errors.Is(err, driver.ErrPullTimeout) || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", services.ErrTimeout, err)
		}
		return nil, newDeviceError(services.ErrCapture, "capture", "pull frame", md.serial, md.label, err)
	}
	defer func() {
		if relErr := frame.Release(); relErr != nil && err == nil {
			img = nil
			err = newDeviceError(services.ErrCapture, "capture", "release buffer", md.serial, md.label, relErr)
		}
	}()

	converted, err := frame.Convert(s.format)
	if err != nil {
		return nil, newDeviceError(services.ErrCapture, "capture", "convert", md.serial, md.label, err)
	}
	key, err := imagekey.New(md.label, sequence)
	if err != nil {
		return nil, newDeviceError(services.ErrCapture, "capture", "key", md.serial, md.label, err)
	}
	return &CapturedImage{
		Key:        key,
		Serial:     md.serial,
		Image:      converted,
		CapturedAt: time.Now(),
	}, nil
}

// stopStreaming stops every streaming camera and reports the first failure.
func (s *Session) stopStreaming(logger *slog.Logger) error {
	var first error
	for _, md := range s.devices {
		if !md.streaming {
			continue
		}
		md.streaming = false
		if err := md.dev.StopStreaming(); err != nil {
			logging.WarnWithContext(logger, "stop streaming failed", "stop_streaming_failed",
				logging.String(logging.FieldCameraSerial, md.serial),
				logging.Error(err),
				logging.String(logging.FieldImpact, "camera may keep streaming until teardown"),
			)
			if first == nil {
				first = newDeviceError(services.ErrCapture, "capture", "stop streaming", md.serial, md.label, err)
			}
		}
	}
	return first
}

// Teardown closes every camera, releases the device locks and closes the
// driver. Calling it again is a no-op.
func (s *Session) Teardown() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	logger := s.logger
	errs := s.releaseDevices(logger)
	if err := s.drv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close driver: %w", err))
	}
	if len(errs) > 0 {
		logging.WarnWithContext(logger, "teardown incomplete", "teardown_failed",
			logging.Error(errors.Join(errs...)),
			logging.String(logging.FieldImpact, "cameras may need a power cycle before the next run"),
		)
		return errors.Join(errs...)
	}
	logger.Debug("session torn down")
	return nil
}

// releaseDevices stops, closes and unlocks every managed device, then
// forgets them.
func (s *Session) releaseDevices(logger *slog.Logger) []error {
	var errs []error
	if err := s.stopStreaming(logger); err != nil {
		errs = append(errs, err)
	}
	for _, md := range s.devices {
		if err := md.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close camera %s: %w", md.serial, err))
		}
		if err := md.lock.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release lock %s: %w", md.serial, err))
		}
	}
	s.devices = nil
	s.initialized = false
	return errs
}

// unwind undoes a partial Initialize.
func (s *Session) unwind(logger *slog.Logger) {
	if errs := s.releaseDevices(logger); len(errs) > 0 {
		logging.WarnWithContext(logger, "initialize cleanup incomplete", "initialize_unwind_failed",
			logging.Error(errors.Join(errs...)),
		)
	}
}

// Cameras returns the initialized cameras in service order.
func (s *Session) Cameras() []Camera {
	out := make([]Camera, 0, len(s.devices))
	for _, md := range s.devices {
		out = append(out, Camera{Serial: md.serial, Label: md.label})
	}
	return out
}
