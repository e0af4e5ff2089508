package modes_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"multicam/internal/acquisition"
	"multicam/internal/driver"
	"multicam/internal/driver/simdriver"
	"multicam/internal/layout"
	"multicam/internal/modes"
	"multicam/internal/operator"
	"multicam/internal/persist"
	"multicam/internal/registry"
	"multicam/internal/services"
)

type rig struct {
	fs      afero.Fs
	drv     *simdriver.Driver
	session *acquisition.Session
	layout  layout.RunLayout
}

func newRig(t *testing.T, reg *registry.Registry, list ...simdriver.DeviceSpec) (*rig, error) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/runs", 0o755); err != nil {
		t.Fatal(err)
	}
	drv := simdriver.New(list...)
	session, err := acquisition.New(acquisition.Options{
		Driver:    drv,
		Registry:  reg,
		Layout:    layout.NewManager(fs),
		OutputDir: "/runs",
	})
	if err != nil {
		t.Fatalf("acquisition.New: %v", err)
	}
	t.Cleanup(func() { _ = session.Teardown() })
	r := &rig{fs: fs, drv: drv, session: session}
	r.layout, _, err = session.Initialize(context.Background(), driver.Mono8, registry.Nickname)
	return r, err
}

func devices(serials ...string) []simdriver.DeviceSpec {
	out := make([]simdriver.DeviceSpec, len(serials))
	for i, s := range serials {
		out[i] = simdriver.DeviceSpec{Serial: s, Width: 6, Height: 4}
	}
	return out
}

func (r *rig) save(t *testing.T, res modes.Result) {
	t.Helper()
	if err := persist.NewWriter(r.fs, nil, nil).Save(context.Background(), res.Images, r.layout, registry.Nickname); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func (r *rig) files(t *testing.T, label string) []string {
	t.Helper()
	entries, err := afero.ReadDir(r.fs, r.layout.Folders[label])
	if err != nil {
		t.Fatalf("read folder %s: %v", label, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// timedClock sleeps on a virtual clock and stamps each round.
type timedClock struct {
	fakeClock
	stamps []time.Time
}

type stampingCapturer struct {
	modes.Capturer
	clock *timedClock
}

func (s stampingCapturer) CaptureRound(ctx context.Context, seq int) (acquisition.CaptureRound, error) {
	s.clock.stamps = append(s.clock.stamps, s.clock.now)
	return s.Capturer.CaptureRound(ctx, seq)
}

func TestScenarioManualTwoDevices(t *testing.T) {
	r, err := newRig(t, nil, devices("18407214", "18407121")...)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	var out bytes.Buffer
	prompter := operator.New(strings.NewReader("\n\ne\n"), &out, r.fs)
	defer prompter.Close()

	res, err := modes.Run(context.Background(), r.session, modes.Options{Kind: modes.Manual, Input: prompter})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Rounds != 2 || len(res.Images) != 4 {
		t.Fatalf("rounds=%d images=%d", res.Rounds, len(res.Images))
	}
	r.save(t, res)
	for _, label := range []string{"1", "2"} {
		got := r.files(t, label)
		want := []string{"cam" + label + "image_1.png", "cam" + label + "image_2.png"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("camera %s files = %v, want %v", label, got, want)
		}
		if filepath.Base(r.layout.Folders[label]) != "Camera "+label {
			t.Fatalf("folder = %s", r.layout.Folders[label])
		}
	}
}

func TestScenarioTimedThreeRoundsOneDevice(t *testing.T) {
	r, err := newRig(t, nil, devices("18407214")...)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	clock := &timedClock{fakeClock: *newFakeClock()}
	res, err := modes.Run(context.Background(), stampingCapturer{Capturer: r.session, clock: clock}, modes.Options{
		Kind: modes.Timed, Count: 3, Delay: time.Second, Clock: clock,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Images) != 3 {
		t.Fatalf("images = %d", len(res.Images))
	}
	for i := 1; i < len(clock.stamps); i++ {
		if gap := clock.stamps[i].Sub(clock.stamps[i-1]); gap < time.Second {
			t.Fatalf("gap between rounds %d and %d = %s", i, i+1, gap)
		}
	}
	r.save(t, res)
	if got := r.files(t, "1"); len(got) != 3 {
		t.Fatalf("files = %v", got)
	}
}

func TestScenarioContinuousFailureOnDeviceTwoRoundTwo(t *testing.T) {
	list := devices("A1", "B2", "C3")
	list[1].PullErr = simdriver.ErrInjected
	list[1].PullErrAt = 2
	r, err := newRig(t, nil, list...)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	res, err := modes.Run(context.Background(), r.session, modes.Options{Kind: modes.Continuous, Count: 5, Clock: newFakeClock()})
	if !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected ErrCapture, got %v", err)
	}
	devErr, ok := acquisition.AsDeviceError(err)
	if !ok || devErr.Label != "2" {
		t.Fatalf("expected error naming camera 2, got %v", err)
	}
	if len(res.Images) != 3 {
		t.Fatalf("expected round 1 images kept, got %d", len(res.Images))
	}
	for _, serial := range []string{"A1", "C3"} {
		if r.drv.Device(serial).Streaming() {
			t.Fatalf("device %s still streaming", serial)
		}
	}
	for _, dev := range r.drv.Devices() {
		if v := dev.Violations(); len(v) != 0 {
			t.Fatalf("violations on %s: %v", dev.Serial(), v)
		}
	}
	r.save(t, res)
	for _, label := range []string{"1", "2", "3"} {
		if got := r.files(t, label); len(got) != 1 || got[0] != "cam"+label+"image_1.png" {
			t.Fatalf("camera %s files = %v", label, got)
		}
	}
}

func TestScenarioRegistryCollision(t *testing.T) {
	reg, err := registry.New([]registry.Entry{{Serial: "18407214", Label: 1}, {Serial: "18407121", Label: 2}})
	if err != nil {
		t.Fatal(err)
	}
	r, err := newRig(t, reg, devices("99990001", "99990002")...)
	if !errors.Is(err, services.ErrDeviceInit) {
		t.Fatalf("expected ErrDeviceInit, got %v", err)
	}
	if entries, _ := afero.ReadDir(r.fs, "/runs"); len(entries) != 0 {
		t.Fatal("no run folder should exist after a registry collision")
	}
}
