// Package pid guards against a second daemon instance contending for the
// same GPIO lines and I2C bus.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"codeberg.org/varken/sensorbridge/internal/errors"
)

const pidFile = "sensorbridge.pid"

func path() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Acquire writes the current process ID to the PID file. If the file
// already names a live process, acquisition fails; a stale file is
// replaced silently.
func Acquire() error {
	if pid, ok := readExisting(); ok {
		process, err := os.FindProcess(pid)
		if err == nil && process.Signal(syscall.Signal(0)) == nil {
			return errors.New(errors.ErrAlreadyRunning)
		}
	}

	if err := os.WriteFile(path(), []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Release removes the PID file.
func Release() error {
	if _, err := os.Stat(path()); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path()); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func readExisting() (int, bool) {
	raw, err := os.ReadFile(path())
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}

	return pid, true
}
