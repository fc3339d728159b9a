// Package lockfile provides single-instance protection via a PID file in
// the data directory. A second live instance fails fast; a lock left behind
// by a dead process is reclaimed.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrHeld is returned when the lock belongs to a live process.
var ErrHeld = errors.New("another instance is running")

type Lock struct {
	path string
}

func New(path string) *Lock {
	return &Lock{path: path}
}

// Acquire claims the lock for the current process. If a lock file exists
// and its PID is a live process, Acquire fails with ErrHeld; if the PID is
// dead, the stale lock is reclaimed.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	pid, err := l.readPID()
	switch {
	case err == nil && pid > 0 && processAlive(pid):
		return fmt.Errorf("%w (pid %d)", ErrHeld, pid)
	case err == nil, err != nil && !os.IsNotExist(err):
		// Stale lock from a dead process, or an unreadable one. Reclaim.
		os.Remove(l.path)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}
	return nil
}

// Release removes the lock file. Missing files are not an error so Release
// is safe on every shutdown path.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (l *Lock) Path() string {
	return l.path
}

func (l *Lock) readPID() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, err
	}

	content := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(content)
	if err != nil {
		return 0, fmt.Errorf("invalid pid in lock file: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %d", pid)
	}
	return pid, nil
}
