//go:build !unix

package unit

import (
	"os/exec"
)

// setGracefulShutdown keeps the default kill on cancellation where SIGINT is unavailable
func setGracefulShutdown(cmd *exec.Cmd) {}
