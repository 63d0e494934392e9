//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setupProcessAttributes configures Unix-specific process attributes
func setupProcessAttributes(cmd *exec.Cmd) {
	// Create a new process group that we can signal as a whole, so that
	// SIGTERM to -pid reaches the entire process tree, not only the
	// direct child.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
