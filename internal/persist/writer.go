package persist

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"multicam/internal/acquisition"
	"multicam/internal/imagekey"
	"multicam/internal/layout"
	"multicam/internal/logging"
	"multicam/internal/registry"
	"multicam/internal/services"
)

// WriteError names the image that could not be saved.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func newWriteError(key, op string, cause error) *WriteError {
	return &WriteError{Key: key, Err: services.Wrap(services.ErrWrite, "save", op, key, cause)}
}

// ImageRecord describes one saved file.
type ImageRecord struct {
	Key      string
	Label    string
	Serial   string
	Sequence int
	Path     string
	Bytes    int64
}

// Recorder stores saved images, typically in the run catalog.
type Recorder interface {
	RecordImage(ctx context.Context, rec ImageRecord) error
}

// Writer saves image sets.
type Writer struct {
	fs       afero.Fs
	recorder Recorder
	logger   *slog.Logger
}

// NewWriter returns a writer; a nil fs means the OS filesystem and a nil
// recorder skips cataloguing.
func NewWriter(fs afero.Fs, recorder Recorder, logger *slog.Logger) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: fs, recorder: recorder, logger: logging.NewComponentLogger(logger, "persist")}
}

// Save writes every image under layout. Images are processed in key order.
func (w *Writer) Save(ctx context.Context, images map[imagekey.Key]*acquisition.CapturedImage, runLayout layout.RunLayout, policy registry.Policy) error {
	ctx = services.WithStage(ctx, "save")
	logger := logging.WithContext(ctx, w.logger)

	keys := make([]imagekey.Key, 0, len(images))
	for key := range images {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b imagekey.Key) int {
		switch {
		case imagekey.Less(a, b):
			return -1
		case imagekey.Less(b, a):
			return 1
		default:
			return 0
		}
	})
	width := imagekey.PadWidth(len(images), len(runLayout.Folders))

	var errs []error
	saved := 0
	for _, key := range keys {
		path, err := w.saveOne(key.String(), images[key], runLayout, policy, width)
		if err != nil {
			errs = append(errs, err)
			logging.WarnWithContext(logger, "image not saved", "image_write_failed",
				logging.ImageKey(key.String()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.String(logging.FieldImpact, "this image is missing from the run folder"),
			)
			continue
		}
		saved++
		if w.recorder != nil {
			if recErr := w.record(ctx, key, images[key], path); recErr != nil {
				logging.WarnWithContext(logger, "catalog update failed", "catalog_write_failed",
					logging.ImageKey(key.String()),
					logging.Error(recErr),
					logging.String(logging.FieldImpact, "image saved but missing from 'multicam runs show'"),
				)
			}
		}
	}
	logger.Info("images saved", logging.Int("saved", saved), logging.Int("failed", len(errs)), logging.String("run_root", runLayout.Root))
	return errors.Join(errs...)
}

func (w *Writer) saveOne(encoded string, captured *acquisition.CapturedImage, runLayout layout.RunLayout, policy registry.Policy, width int) (string, error) {
	key, err := imagekey.Parse(encoded)
	if err != nil {
		return "", newWriteError(encoded, "parse key", err)
	}
	if policy == registry.Nickname && !isOrdinal(key.Label) {
		return "", newWriteError(encoded, "resolve folder", fmt.Errorf("label %q is not an ordinal", key.Label))
	}
	folder, ok := runLayout.Folder(key.Label)
	if !ok {
		return "", newWriteError(encoded, "resolve folder", fmt.Errorf("no folder for camera %s", key.Label))
	}
	if captured == nil || captured.Image == nil {
		return "", newWriteError(encoded, "encode", errors.New("image has no pixel data"))
	}
	path := filepath.Join(folder, key.FileName(width))

	if err := w.encode(path, captured.Image.Gray()); err != nil {
		return "", newWriteError(encoded, "encode", err)
	}
	if err := w.rotateInPlace(path); err != nil {
		return "", newWriteError(encoded, "rotate", err)
	}
	return path, nil
}

func (w *Writer) encode(path string, img image.Image) error {
	file, err := w.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := imaging.Encode(file, img, imaging.PNG); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// rotateInPlace re-reads the PNG at path, rotates it 270 degrees
// counter-clockwise and rewrites it.
func (w *Writer) rotateInPlace(path string) error {
	file, err := w.fs.Open(path)
	if err != nil {
		return err
	}
	src, err := imaging.Decode(file)
	_ = file.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return w.encode(path, Rotate270(src))
}

func (w *Writer) record(ctx context.Context, key imagekey.Key, captured *acquisition.CapturedImage, path string) error {
	var size int64
	if info, err := w.fs.Stat(path); err == nil {
		size = info.Size()
	}
	return w.recorder.RecordImage(ctx, ImageRecord{
		Key:      key.String(),
		Label:    key.Label,
		Serial:   captured.Serial,
		Sequence: key.Sequence,
		Path:     path,
		Bytes:    size,
	})
}

func isOrdinal(label string) bool {
	if label == "" {
		return false
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
