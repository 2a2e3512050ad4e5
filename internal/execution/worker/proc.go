package worker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"time"

	"go.uber.org/zap"
)

type proc struct {
	pid     int
	stdin   io.WriteCloser
	stdout  *json.Decoder
	process *os.Process

	// stderr is only read after done was closed
	stderr bytes.Buffer

	done chan struct{}
	err  error

	log *zap.Logger
}

func startProc(config StartConfig, log *zap.Logger) (*proc, error) {
	cmd := exec.Command(config.Cmd, config.Args...)

	cmd.Env = buildEnv(config.Env)

	if config.Cwd != "" {
		cmd.Dir = config.Cwd
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &proc{
		pid:     cmd.Process.Pid,
		stdin:   stdin,
		stdout:  json.NewDecoder(stdout),
		process: cmd.Process,
		done:    make(chan struct{}),
		log:     log.Named("proc").With(zap.Int("pid", cmd.Process.Pid)),
	}

	go func() {
		// cmd.Wait closes the pipes, so stderr is drained first
		if _, err := io.Copy(&p.stderr, stderr); err != nil {
			p.log.Debug("failed to read from stderr", zap.Error(err))
		}

		p.err = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// Done is closed once the process exited.
func (p *proc) Done() <-chan struct{} {
	return p.done
}

// Err returns the exit error of the process. Only valid after Done
// was closed.
func (p *proc) Err() error {
	return p.err
}

// Stderr returns everything the process wrote to stderr. Only valid
// after Done was closed.
func (p *proc) Stderr() string {
	return p.stderr.String()
}

// Terminate asks the process to stop and waits up to timeout for it
// to exit. A negative timeout returns immediately, zero waits forever.
func (p *proc) Terminate(timeout time.Duration) error {
	if p.exited() {
		p.log.Debug("process already terminated")
		return nil
	}

	p.closeStdin()

	if err := p.signal(false); err != nil {
		p.log.Error("terminate failed", zap.Error(err))
	}

	return p.waitForTermination(timeout)
}

// Kill kills the process and waits up to timeout for it to exit.
func (p *proc) Kill(timeout time.Duration) error {
	if p.exited() {
		p.log.Debug("process already terminated")
		return nil
	}

	p.closeStdin()

	if err := p.signal(true); err != nil {
		p.log.Error("kill failed", zap.Error(err))
	}

	return p.waitForTermination(timeout)
}

func (p *proc) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *proc) closeStdin() {
	// close stdin first, so the process does not hang on input
	if err := p.stdin.Close(); err != nil {
		p.log.Debug("close stdin failed", zap.Error(err))
	}
}

func (p *proc) waitForTermination(timeout time.Duration) error {
	if timeout < 0 {
		return nil
	}

	if timeout == 0 {
		<-p.done
		return nil
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		return ErrKillTimeout
	}
}

func (p *proc) write(v any) error {
	if err := json.NewEncoder(p.stdin).Encode(v); err != nil {
		return fmt.Errorf("failed to write to stdin: %w", err)
	}

	return nil
}

func (p *proc) read(v any) error {
	if err := p.stdout.Decode(v); err != nil {
		return fmt.Errorf("failed to read from stdout: %w", err)
	}

	return nil
}

func buildEnv(extra map[string]string) []string {
	env := os.Environ()

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}

	return env
}
