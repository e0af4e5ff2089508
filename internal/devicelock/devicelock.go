package devicelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// ErrInUse reports that another session holds the camera.
var ErrInUse = errors.New("camera in use by another session")

// Locker hands out per-serial locks rooted at a directory.
type Locker struct {
	dir string
}

// New returns a locker writing lock files under dir.
func New(dir string) *Locker {
	return &Locker{dir: dir}
}

// Path returns the lock file path for serial.
func (l *Locker) Path(serial string) string {
	return filepath.Join(l.dir, "camera-"+sanitize(serial)+".lock")
}

// Acquire takes the lock for serial without blocking.
func (l *Locker) Acquire(serial string) (*Lock, error) {
	if l == nil || l.dir == "" {
		return &Lock{}, nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	fl := flock.New(l.Path(serial))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", serial, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", serial, ErrInUse)
	}
	return &Lock{fl: fl}, nil
}

// Lock is a held camera lock. Release is idempotent.
type Lock struct {
	once sync.Once
	fl   *flock.Flock
}

// Release unlocks the camera.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	var err error
	l.once.Do(func() {
		if l.fl != nil {
			err = l.fl.Unlock()
		}
	})
	return err
}

func sanitize(serial string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, serial)
}
