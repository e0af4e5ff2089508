package services_test

import (
	"errors"
	"strings"
	"testing"

	"multicam/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrCapture, "capture", "pull", "camera 18407121", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"capture", "pull", "18407121"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected default capture marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestHintCoversMarkers(t *testing.T) {
	markers := []error{
		services.ErrNoDevicesFound,
		services.ErrDeviceInit,
		services.ErrTimeout,
		services.ErrCapture,
		services.ErrPathCreation,
		services.ErrWrite,
		services.ErrInvalidInput,
		services.ErrConfiguration,
	}
	for _, marker := range markers {
		if hint := services.Hint(services.Wrap(marker, "stage", "", "", nil)); hint == "" || hint == "check logs for details" {
			t.Fatalf("expected specific hint for %v, got %q", marker, hint)
		}
	}
	if services.Hint(nil) != "" {
		t.Fatal("expected empty hint for nil error")
	}
}
