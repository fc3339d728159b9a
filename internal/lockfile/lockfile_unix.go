//go:build unix

package lockfile

import "syscall"

// processAlive reports whether a process with the given PID exists.
// Signal 0 performs the existence check without delivering anything.
func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
