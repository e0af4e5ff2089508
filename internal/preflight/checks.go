package preflight

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"multicam/internal/config"
	"multicam/internal/driver/gstdriver"
)

// CheckDirectoryAccess verifies a directory exists and is readable and writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minMiB
// available to unprivileged users. A non-positive minimum disables the check.
func CheckFreeSpace(name, path string, minMiB int) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if minMiB <= 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free (no minimum)", humanize.IBytes(free))}
	}
	required := uint64(minMiB) * humanize.MiByte
	if free < required {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need %s", humanize.IBytes(free), humanize.IBytes(required))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}

// CheckDriver reports whether the configured driver can be constructed by
// this binary.
func CheckDriver(kind string) Result {
	name := "Camera driver"
	switch kind {
	case config.DriverSim:
		return Result{Name: name, Passed: true, Detail: "sim (synthetic frames)"}
	case config.DriverGStreamer:
		if !gstdriver.Available() {
			return Result{Name: name, Detail: "gstreamer (error: binary built without the gstreamer tag)"}
		}
		return Result{Name: name, Passed: true, Detail: "gstreamer"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%q (error: unknown driver kind)", kind)}
	}
}
