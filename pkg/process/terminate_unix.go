//go:build !windows

package process

import (
	"syscall"
)

// SendTerminationSignal sends SIGTERM to the process group on Unix systems.
// The negative PID targets the whole process tree, not only the direct child.
func SendTerminationSignal(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// ForceKill sends SIGKILL to the process group.
func ForceKill(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
