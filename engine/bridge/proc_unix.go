//go:build unix

package bridge

import (
	"os"
	"os/exec"
	"syscall"
)

// isolate puts the child in its own process group, so an interrupt from
// the terminal reaches only this process, which then closes the bridge.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
