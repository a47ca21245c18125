//go:build unix

package lock

import (
	"errors"
	"os"
	"syscall"
)

// ProcessAlive reports whether a process with the given PID exists.
// EPERM still counts as alive: the process is there, just not ours.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
