package worker

import "os/exec"

func setProcAttr(*exec.Cmd) {}

func (p *proc) signal(bool) error {
	return p.process.Kill()
}
