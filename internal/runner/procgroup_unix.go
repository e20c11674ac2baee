//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the target in its own process group and makes
// context cancellation kill the whole group, so grandchildren holding the
// output pipes die with it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
