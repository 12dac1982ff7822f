//go:build !unix

package bridge

import (
	"os"
	"os/exec"
)

func isolate(cmd *exec.Cmd) {}

func terminate(p *os.Process) error {
	return p.Kill()
}
