//go:build !windows

package worker

import (
	"os/exec"
	"syscall"
)

func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func (p *proc) signal(force bool) error {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}

	if pgid, err := syscall.Getpgid(p.pid); err == nil {
		// negative pid signals the whole process group
		return syscall.Kill(-pgid, sig)
	}

	return syscall.Kill(p.pid, sig)
}
