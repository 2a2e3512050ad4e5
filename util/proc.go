package util

import (
	"os"
	"syscall"
)

// IsProcessAlive reports whether a process with the given pid exists
// and can be signalled. Reaped processes are not alive.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// signal 0 performs the existence check without signalling
	return process.Signal(syscall.Signal(0)) == nil
}
