package registry_test

import (
	"errors"
	"reflect"
	"testing"

	"multicam/internal/config"
	"multicam/internal/registry"
	"multicam/internal/services"
)

func TestResolveNicknameFromRegistry(t *testing.T) {
	reg, err := registry.New([]registry.Entry{{Serial: "18407214", Label: 1}, {Serial: "18407121", Label: 2}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	labels, err := reg.Resolve(registry.Nickname, []string{"18407121", " 18407214"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := []string{"2", "1"}; !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
}

func TestResolveNicknameWithEmptyRegistryUsesEnumerationOrder(t *testing.T) {
	reg, err := registry.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	labels, err := reg.Resolve(registry.Nickname, []string{"b", "a", "c"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := []string{"1", "2", "3"}; !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
}

func TestResolveSerialPolicy(t *testing.T) {
	reg, _ := registry.New([]registry.Entry{{Serial: "18407214", Label: 1}})
	labels, err := reg.Resolve(registry.Serial, []string{"18407214", "99"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := []string{"18407214", "99"}; !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
}

func TestResolveFailures(t *testing.T) {
	reg, _ := registry.New([]registry.Entry{{Serial: "18407214", Label: 1}})
	tests := []struct {
		name    string
		policy  registry.Policy
		serials []string
	}{
		{"unmapped serials", registry.Nickname, []string{"11111111", "22222222"}},
		{"duplicate serial", registry.Nickname, []string{"18407214", "18407214"}},
		{"duplicate serial serial policy", registry.Serial, []string{"abc", "abc"}},
		{"unsafe serial label", registry.Serial, []string{"ab_c"}},
		{"empty serial", registry.Serial, []string{"  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Resolve(tt.policy, tt.serials)
			if !errors.Is(err, services.ErrDeviceInit) {
				t.Fatalf("expected ErrDeviceInit, got %v", err)
			}
		})
	}
}

func TestNewRejectsCollisions(t *testing.T) {
	if _, err := registry.New([]registry.Entry{{Serial: "a", Label: 1}, {Serial: "b", Label: 1}}); err == nil {
		t.Fatal("expected duplicate label error")
	}
	if _, err := registry.New([]registry.Entry{{Serial: "a", Label: 1}, {Serial: "a", Label: 2}}); err == nil {
		t.Fatal("expected duplicate serial error")
	}
}

func TestNormalizeSerialFoldsCompatibilityForms(t *testing.T) {
	// Fullwidth digits fold to ASCII under NFKC.
	if got := registry.NormalizeSerial("１８４０７２１４ "); got != "18407214" {
		t.Fatalf("NormalizeSerial = %q", got)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cameras = []config.Camera{{Serial: "18407214", Label: 3}}
	reg, err := registry.FromConfig(&cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if label, ok := reg.Lookup("18407214"); !ok || label != 3 {
		t.Fatalf("Lookup = %d, %v", label, ok)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := registry.ParsePolicy("Serial"); err != nil || p != registry.Serial {
		t.Fatalf("ParsePolicy(Serial) = %q, %v", p, err)
	}
	if _, err := registry.ParsePolicy("x"); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
