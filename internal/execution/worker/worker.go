package worker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type Worker[I, O any] interface {
	// Start boots the worker process.
	Start(context.Context, StartConfig) error

	// Send writes a message to the worker and reads its response.
	Send(context.Context, I, SendConfig) (O, error)

	// Terminate asks the worker process to stop. It does not wait.
	Terminate() error

	// Kill kills the worker process. It does not wait.
	Kill() error

	// Wait blocks until the worker process exited.
	Wait(context.Context) (ExitEvent, error)

	// WaitFor is Wait with a deadline. A deadline <= 0 waits forever.
	WaitFor(context.Context, time.Duration) (ExitEvent, error)

	// Pid is the process id, or 0 while no process runs.
	Pid() int
}

// ProcessWorker runs a child process and exchanges JSON lines of the
// form {"id":...,"data":...} with it over stdin and stdout.
type ProcessWorker[I, O any] struct {
	processLock sync.Mutex
	process     *proc

	msgid     int
	msgidLock sync.Mutex

	log *zap.Logger
}

var _ Worker[any, any] = (*ProcessWorker[any, any])(nil)

func NewProcessWorker[I, O any](log *zap.Logger) *ProcessWorker[I, O] {
	return &ProcessWorker[I, O]{
		log: log.Named("worker"),
	}
}

// Start starts the worker process.
func (w *ProcessWorker[I, O]) Start(ctx context.Context, config StartConfig) error {
	w.log.With(
		zap.String("command", config.Cmd),
		zap.Strings("args", config.Args),
		zap.String("cwd", config.Cwd),
	).Debug("starting worker process")

	w.processLock.Lock()
	defer w.processLock.Unlock()

	if w.process != nil {
		return ErrWorkerAlreadyStarted
	}

	// exit early if the context is already cancelled
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	if config.Cmd == "" {
		return errors.New("failed to start process: no command given")
	}

	process, err := startProc(config, w.log)
	if err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	w.process = process

	return nil
}

// Send writes data to the stdin of the worker process and reads the
// response from its stdout. The response must carry the id of the
// request.
func (w *ProcessWorker[I, O]) Send(
	ctx context.Context,
	data I,
	config SendConfig,
) (O, error) {
	var zero O

	process := w.acquireProcess()
	if process == nil {
		return zero, ErrWorkerNotStarted
	}

	id := w.nextMsgID()

	if err := process.write(Message[I]{ID: id, Data: data}); err != nil {
		return zero, err
	}

	msg, err := w.readMessage(ctx, process, config.Timeout)
	if err != nil {
		return zero, err
	}

	if msg.ID != id {
		return zero, fmt.Errorf("%w: expected %d, got %d", ErrUnexpectedMessageID, id, msg.ID)
	}

	return msg.Data, nil
}

func (w *ProcessWorker[I, O]) readMessage(
	ctx context.Context,
	process *proc,
	timeout time.Duration,
) (Message[O], error) {
	var msg Message[O]

	// the decoder does not support cancellation, so it is
	// raced against the context in a goroutine
	done := make(chan error, 1)
	go func() {
		done <- process.read(&msg)
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		return Message[O]{}, ctx.Err()
	case <-process.Done():
		// the pipes are closed once the process exited, so the
		// decoder returns promptly
		if err := <-done; err != nil {
			return Message[O]{}, fmt.Errorf("worker exited: %w: %s", err, process.Stderr())
		}
		return msg, nil
	case err := <-done:
		return msg, err
	}
}

// Terminate sends a SIGTERM signal to the worker process. The method
// returns immediately, without waiting for the process to stop.
func (w *ProcessWorker[I, O]) Terminate() error {
	if process := w.acquireProcess(); process != nil {
		return process.Terminate(-1)
	}

	return ErrWorkerNotStarted
}

// Kill sends a SIGKILL signal to the worker process. The method
// returns immediately, without waiting for the process to stop.
func (w *ProcessWorker[I, O]) Kill() error {
	if process := w.acquireProcess(); process != nil {
		return process.Kill(-1)
	}

	return ErrWorkerNotStarted
}

// Wait waits for the worker process to exit and returns its exit
// event. If the process already exited, Wait returns immediately.
func (w *ProcessWorker[I, O]) Wait(ctx context.Context) (ExitEvent, error) {
	process := w.acquireProcess()
	if process == nil {
		return ExitEvent{}, ErrWorkerNotStarted
	}

	select {
	case <-ctx.Done():
		return ExitEvent{}, ctx.Err()
	case <-process.Done():
		return getExitEvent(process.Err(), process.Stderr()), nil
	}
}

// WaitFor waits for the worker process to exit, at most for deadline.
func (w *ProcessWorker[I, O]) WaitFor(
	ctx context.Context,
	deadline time.Duration,
) (ExitEvent, error) {
	var cancel context.CancelFunc
	if deadline <= 0 {
		ctx, cancel = context.WithCancel(ctx)
	} else {
		ctx, cancel = context.WithTimeout(ctx, deadline)
	}
	defer cancel()

	return w.Wait(ctx)
}

// Pid returns the pid of the worker process, or 0 if not started.
func (w *ProcessWorker[I, O]) Pid() int {
	if process := w.acquireProcess(); process != nil {
		return process.pid
	}

	return 0
}

func (w *ProcessWorker[I, O]) acquireProcess() *proc {
	w.processLock.Lock()
	defer w.processLock.Unlock()

	return w.process
}

func (w *ProcessWorker[I, O]) nextMsgID() int {
	w.msgidLock.Lock()
	defer w.msgidLock.Unlock()

	id := w.msgid
	w.msgid++

	return id
}

// MARK: - Helpers

func getExitEvent(err error, stderr string) ExitEvent {
	var code, signal *int

	var exitError *exec.ExitError
	switch {
	case err == nil:
		code = new(int)
	case errors.As(err, &exitError):
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			s := int(status.Signal())
			signal = &s
		} else {
			c := exitError.ExitCode()
			code = &c
		}
	}

	// the exit status could not be determined
	if code == nil && signal == nil {
		c := 1
		code = &c
	}

	return ExitEvent{
		Code:   code,
		Signal: signal,
		Stderr: stderr,
	}
}
