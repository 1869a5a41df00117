//go:build !windows

package agent

import "os/exec"

// hideConsoleWindow is a no-op outside Windows; spawned processes do not
// open console windows there.
func hideConsoleWindow(_ *exec.Cmd) {}
