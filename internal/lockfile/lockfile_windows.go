//go:build windows

package lockfile

import "os"

func processAlive(pid int) bool {
	// FindProcess only errors on Windows when the process does not exist.
	_, err := os.FindProcess(pid)
	return err == nil
}
