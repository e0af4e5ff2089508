package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"multicam/internal/services"
)

// RootTimeFormat renders the run folder timestamp with second resolution.
const RootTimeFormat = "2006-01-02 15hr 04min 05s"

// RunLayout is the created run tree.
type RunLayout struct {
	Root    string
	Folders map[string]string
}

// Folder returns the subfolder for label.
func (l RunLayout) Folder(label string) (string, bool) {
	path, ok := l.Folders[label]
	return path, ok
}

// RootName returns the run folder name for t.
func RootName(t time.Time) string {
	return "Camera Run " + t.Format(RootTimeFormat)
}

// FolderName returns the per-camera folder name.
func FolderName(label string) string {
	return "Camera " + label
}

// Manager creates run layouts on a filesystem.
type Manager struct {
	fs  afero.Fs
	now func() time.Time
}

// NewManager returns a manager; a nil fs means the OS filesystem.
func NewManager(fs afero.Fs) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{fs: fs, now: time.Now}
}

// WithClock overrides the timestamp source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Create makes the run root under base, then one folder per label. An
// existing root is an error so two runs never share a folder. When a
// per-camera folder cannot be made the root is removed again.
func (m *Manager) Create(base string, labels []string) (RunLayout, error) {
	if base == "" {
		return RunLayout{}, services.Wrap(services.ErrPathCreation, "initialize", "create layout", "output directory is empty", nil)
	}
	info, err := m.fs.Stat(base)
	if err != nil {
		return RunLayout{}, services.Wrap(services.ErrPathCreation, "initialize", "create layout", "output directory "+base, err)
	}
	if !info.IsDir() {
		return RunLayout{}, services.Wrap(services.ErrPathCreation, "initialize", "create layout", base+" is not a directory", nil)
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if seen[label] {
			return RunLayout{}, services.Wrap(services.ErrPathCreation, "initialize", "create layout",
				fmt.Sprintf("duplicate label %q", label), nil)
		}
		seen[label] = true
	}

	root := filepath.Join(base, RootName(m.now()))
	if _, err := m.fs.Stat(root); err == nil {
		return RunLayout{}, services.Wrap(services.ErrPathCreation, "initialize", "create layout", "run folder already exists: "+root, nil)
	} else if !os.IsNotExist(err) {
		return RunLayout{}, services.Wrap(services.ErrPathCreation, "initialize", "create layout", "stat "+root, err)
	}
	if err := m.fs.Mkdir(root, 0o755); err != nil {
		return RunLayout{}, services.Wrap(services.ErrPathCreation, "initialize", "create layout", "create "+root, err)
	}

	layout := RunLayout{Root: root, Folders: make(map[string]string, len(labels))}
	for _, label := range labels {
		folder := filepath.Join(root, FolderName(label))
		if err := m.fs.Mkdir(folder, 0o755); err != nil {
			err = services.Wrap(services.ErrPathCreation, "initialize", "create layout", "create "+folder, err)
			if rmErr := m.fs.RemoveAll(root); rmErr != nil {
				err = errors.Join(err, fmt.Errorf("remove partial run folder %s: %w", root, rmErr))
			}
			return RunLayout{}, err
		}
		layout.Folders[label] = folder
	}
	return layout, nil
}
