package persist_test

import (
	"context"
	"errors"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"multicam/internal/acquisition"
	"multicam/internal/driver"
	"multicam/internal/imagekey"
	"multicam/internal/layout"
	"multicam/internal/persist"
	"multicam/internal/registry"
	"multicam/internal/services"
)

type recorder struct {
	records []persist.ImageRecord
}

func (r *recorder) RecordImage(_ context.Context, rec persist.ImageRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func newLayout(t *testing.T, fs afero.Fs, labels ...string) layout.RunLayout {
	t.Helper()
	root := "/runs/Camera Run test"
	l := layout.RunLayout{Root: root, Folders: map[string]string{}}
	for _, label := range labels {
		folder := filepath.Join(root, layout.FolderName(label))
		if err := fs.MkdirAll(folder, 0o755); err != nil {
			t.Fatal(err)
		}
		l.Folders[label] = folder
	}
	return l
}

// gradient returns a width x height image where each sample encodes its
// coordinates so rotations can be checked exactly.
func gradient(t *testing.T, width, height int, format driver.PixelFormat) *driver.Image {
	t.Helper()
	samples := make([]uint16, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			samples[y*width+x] = uint16(y*16 + x)
		}
	}
	img, err := driver.ConvertRaw(width, height, samples, 8, format)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func captured(t *testing.T, label string, seq int, serial string, img *driver.Image) (imagekey.Key, *acquisition.CapturedImage) {
	t.Helper()
	key, err := imagekey.New(label, seq)
	if err != nil {
		t.Fatal(err)
	}
	return key, &acquisition.CapturedImage{Key: key, Serial: serial, Image: img}
}

func decode(t *testing.T, fs afero.Fs, path string) image.Image {
	t.Helper()
	f, err := fs.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestSaveWritesRotatedMono8(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := newLayout(t, fs, "1")
	key, img := captured(t, "1", 1, "A1", gradient(t, 4, 2, driver.Mono8))
	rec := &recorder{}

	w := persist.NewWriter(fs, rec, nil)
	if err := w.Save(context.Background(), map[imagekey.Key]*acquisition.CapturedImage{key: img}, l, registry.Nickname); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := filepath.Join(l.Folders["1"], "cam1image_1.png")
	out := decode(t, fs, path)
	gray, ok := out.(*image.Gray)
	if !ok {
		t.Fatalf("expected 8-bit gray PNG, got %T", out)
	}
	if b := gray.Bounds(); b.Dx() != 2 || b.Dy() != 4 {
		t.Fatalf("rotated bounds = %v", b)
	}
	// source (x, y) lands at (h-1-y, x)
	if got, want := gray.GrayAt(1, 3).Y, img.Image.Gray().(*image.Gray).GrayAt(3, 0).Y; got != want {
		t.Fatalf("rotated pixel = %d, want %d", got, want)
	}
	if len(rec.records) != 1 || rec.records[0].Serial != "A1" || rec.records[0].Bytes == 0 {
		t.Fatalf("unexpected records %+v", rec.records)
	}
}

func TestSavePreservesSixteenBitDepth(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := newLayout(t, fs, "18407214")
	src := gradient(t, 3, 2, driver.Mono12)
	key, img := captured(t, "18407214", 2, "18407214", src)

	w := persist.NewWriter(fs, nil, nil)
	if err := w.Save(context.Background(), map[imagekey.Key]*acquisition.CapturedImage{key: img}, l, registry.Serial); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out := decode(t, fs, filepath.Join(l.Folders["18407214"], "cam18407214image_2.png"))
	gray16, ok := out.(*image.Gray16)
	if !ok {
		t.Fatalf("expected 16-bit gray PNG, got %T", out)
	}
	if got, want := gray16.Gray16At(1, 0).Y, src.At16(0, 0); got != want {
		t.Fatalf("rotated pixel = %#x, want %#x", got, want)
	}
}

func TestSavePadsSequenceForMultiDIC(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := newLayout(t, fs, "1", "2")
	images := map[imagekey.Key]*acquisition.CapturedImage{}
	for seq := 1; seq <= 10; seq++ {
		for _, label := range []string{"1", "2"} {
			key, img := captured(t, label, seq, "S"+label, gradient(t, 2, 2, driver.Mono8))
			images[key] = img
		}
	}
	if err := persist.NewWriter(fs, nil, nil).Save(context.Background(), images, l, registry.Nickname); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, name := range []string{"cam2image_01.png", "cam2image_10.png"} {
		if ok, _ := afero.Exists(fs, filepath.Join(l.Folders["2"], name)); !ok {
			t.Fatalf("missing %s", name)
		}
	}
}

func TestSaveCollectsFailuresAndContinues(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := newLayout(t, fs, "1", "2")
	delete(l.Folders, "2")

	images := map[imagekey.Key]*acquisition.CapturedImage{}
	for _, label := range []string{"1", "2", "3"} {
		key, img := captured(t, label, 1, "S"+label, gradient(t, 2, 2, driver.Mono8))
		images[key] = img
	}
	err := persist.NewWriter(fs, nil, nil).Save(context.Background(), images, l, registry.Nickname)
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	var writeErr *persist.WriteError
	if !errors.As(err, &writeErr) || writeErr.Key != "cam2image_1" {
		t.Fatalf("expected first WriteError for cam2image_1, got %v", err)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 2 {
		t.Fatalf("expected two aggregated failures, got %v", err)
	}
	if ok, _ := afero.Exists(fs, filepath.Join(l.Folders["1"], "cam1image_1.png")); !ok {
		t.Fatal("image for camera 1 should still be saved")
	}
}

func TestSaveReadOnlyFilesystem(t *testing.T) {
	mem := afero.NewMemMapFs()
	l := newLayout(t, mem, "1")
	key, img := captured(t, "1", 1, "A1", gradient(t, 2, 2, driver.Mono8))
	err := persist.NewWriter(afero.NewReadOnlyFs(mem), nil, nil).Save(context.Background(), map[imagekey.Key]*acquisition.CapturedImage{key: img}, l, registry.Nickname)
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestSaveNicknamePolicyRejectsSerialLabels(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := newLayout(t, fs, "A1")
	key, img := captured(t, "A1", 1, "A1", gradient(t, 2, 2, driver.Mono8))
	err := persist.NewWriter(fs, nil, nil).Save(context.Background(), map[imagekey.Key]*acquisition.CapturedImage{key: img}, l, registry.Nickname)
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestSaveEmptySetIsNoop(t *testing.T) {
	if err := persist.NewWriter(afero.NewMemMapFs(), nil, nil).Save(context.Background(), nil, layout.RunLayout{}, registry.Nickname); err != nil {
		t.Fatalf("Save: %v", err)
	}
}
