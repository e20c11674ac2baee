//go:build !unix

package runner

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable; only
// the direct child is killed and WaitDelay bounds the wait for its pipes.
func killProcessGroup(cmd *exec.Cmd) {}
