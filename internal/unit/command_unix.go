//go:build unix

package unit

import (
	"os/exec"
	"syscall"
)

// setGracefulShutdown interrupts the process on cancellation instead of killing it
func setGracefulShutdown(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGINT)
	}
}
