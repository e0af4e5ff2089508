package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoDevicesFound = errors.New("no devices found")
	ErrDeviceInit     = errors.New("device initialization failed")
	ErrCapture        = errors.New("capture failed")
	ErrPathCreation   = errors.New("path creation failed")
	ErrWrite          = errors.New("write failed")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTimeout        = errors.New("timeout")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCapture
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint returns a short operator-facing suggestion for a classified error.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoDevicesFound):
		return "check camera power and network/USB links, then rerun"
	case errors.Is(err, ErrDeviceInit):
		return "verify the camera is not in use and is listed in [[cameras]]"
	case errors.Is(err, ErrTimeout):
		return "camera did not deliver a frame in time; raise capture.pull_timeout_seconds or check the link"
	case errors.Is(err, ErrCapture):
		return "images from completed rounds were kept; inspect the named camera"
	case errors.Is(err, ErrPathCreation):
		return "check the output directory exists and is writable"
	case errors.Is(err, ErrWrite):
		return "some images could not be saved; see the listed keys"
	case errors.Is(err, ErrInvalidInput):
		return "rerun and answer the prompt with one of the listed options"
	case errors.Is(err, ErrConfiguration):
		return "run 'multicam config validate'"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
