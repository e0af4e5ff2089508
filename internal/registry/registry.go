package registry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"multicam/internal/config"
	"multicam/internal/services"
)

// Policy selects how device labels are derived.
type Policy string

const (
	// Nickname labels devices with small ordinals (1..N).
	Nickname Policy = config.NamingNickname
	// Serial labels devices with their raw serial number.
	Serial Policy = config.NamingSerial
)

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ParsePolicy converts a naming policy name into a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "nickname", "nicknames", "ordinal":
		return Nickname, nil
	case "serial", "serials":
		return Serial, nil
	default:
		return "", fmt.Errorf("%w: unknown naming policy %q", services.ErrInvalidInput, value)
	}
}

// ValidLabel reports whether label can be embedded in an image key.
func ValidLabel(label string) bool {
	return labelPattern.MatchString(label)
}

// NormalizeSerial canonicalizes a serial string before lookup.
func NormalizeSerial(serial string) string {
	return strings.TrimSpace(norm.NFKC.String(serial))
}

// Entry maps one serial number to its ordinal label.
type Entry struct {
	Serial string
	Label  int
}

// Registry is the immutable serial to ordinal table.
type Registry struct {
	entries  []Entry
	bySerial map[string]int
}

// New builds a registry, rejecting duplicate serials or labels.
func New(entries []Entry) (*Registry, error) {
	r := &Registry{bySerial: make(map[string]int, len(entries))}
	labels := make(map[int]string, len(entries))
	for _, entry := range entries {
		serial := NormalizeSerial(entry.Serial)
		if serial == "" {
			return nil, fmt.Errorf("%w: registry entry has empty serial", services.ErrConfiguration)
		}
		if entry.Label <= 0 {
			return nil, fmt.Errorf("%w: registry label for %s must be positive", services.ErrConfiguration, serial)
		}
		if _, ok := r.bySerial[serial]; ok {
			return nil, fmt.Errorf("%w: duplicate registry serial %s", services.ErrConfiguration, serial)
		}
		if other, ok := labels[entry.Label]; ok {
			return nil, fmt.Errorf("%w: label %d assigned to both %s and %s", services.ErrConfiguration, entry.Label, other, serial)
		}
		labels[entry.Label] = serial
		r.bySerial[serial] = entry.Label
		r.entries = append(r.entries, Entry{Serial: serial, Label: entry.Label})
	}
	return r, nil
}

// FromConfig builds the registry from the [[cameras]] tables.
func FromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return New(nil)
	}
	entries := make([]Entry, 0, len(cfg.Cameras))
	for _, cam := range cfg.Cameras {
		entries = append(entries, Entry{Serial: cam.Serial, Label: cam.Label})
	}
	return New(entries)
}

// Len returns the number of mapped serials.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Lookup returns the ordinal for serial.
func (r *Registry) Lookup(serial string) (int, bool) {
	if r == nil {
		return 0, false
	}
	label, ok := r.bySerial[NormalizeSerial(serial)]
	return label, ok
}

// Resolve assigns one label per serial, in the order given. The result is
// bijective with serials or an ErrDeviceInit error is returned.
func (r *Registry) Resolve(policy Policy, serials []string) ([]string, error) {
	seen := make(map[string]struct{}, len(serials))
	for _, raw := range serials {
		serial := NormalizeSerial(raw)
		if serial == "" {
			return nil, services.Wrap(services.ErrDeviceInit, "initialize", "resolve labels", "camera reported an empty serial", nil)
		}
		if _, dup := seen[serial]; dup {
			return nil, services.Wrap(services.ErrDeviceInit, "initialize", "resolve labels",
				fmt.Sprintf("serial %s reported by more than one camera", serial), nil)
		}
		seen[serial] = struct{}{}
	}

	labels := make([]string, 0, len(serials))
	switch policy {
	case Serial:
		for _, raw := range serials {
			serial := NormalizeSerial(raw)
			if !ValidLabel(serial) {
				return nil, services.Wrap(services.ErrDeviceInit, "initialize", "resolve labels",
					fmt.Sprintf("serial %q cannot be used as a folder label", serial), nil)
			}
			labels = append(labels, serial)
		}
	case Nickname:
		if r.Len() == 0 {
			for i := range serials {
				labels = append(labels, strconv.Itoa(i+1))
			}
			return labels, nil
		}
		for _, raw := range serials {
			label, ok := r.Lookup(raw)
			if !ok {
				return nil, services.Wrap(services.ErrDeviceInit, "initialize", "resolve labels",
					fmt.Sprintf("camera %s is not listed in [[cameras]]", NormalizeSerial(raw)), nil)
			}
			labels = append(labels, strconv.Itoa(label))
		}
	default:
		return nil, fmt.Errorf("%w: unknown naming policy %q", services.ErrInvalidInput, policy)
	}
	return labels, nil
}
