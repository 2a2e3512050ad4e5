package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/internal/execution/worker"
)

func startWorker(t *testing.T, config worker.StartConfig) *worker.ProcessWorker[string, string] {
	w := worker.NewProcessWorker[string, string](zap.NewNop())

	require.NoError(t, w.Start(context.Background(), config))

	t.Cleanup(func() {
		_ = w.Kill()
	})

	return w
}

func shell(script string) worker.StartConfig {
	return worker.StartConfig{
		Cmd:  "sh",
		Args: []string{"-c", script},
	}
}

func TestWorker_Start_FailsIfStarted(t *testing.T) {
	w := startWorker(t, worker.StartConfig{Cmd: "cat"})

	err := w.Start(context.Background(), worker.StartConfig{Cmd: "cat"})
	assert.ErrorIs(t, err, worker.ErrWorkerAlreadyStarted)
}

func TestWorker_Start_FailsWithoutCommand(t *testing.T) {
	w := worker.NewProcessWorker[string, string](zap.NewNop())

	assert.Error(t, w.Start(context.Background(), worker.StartConfig{}))
}

func TestWorker_Start_FailsIfContextCancelled(t *testing.T) {
	w := worker.NewProcessWorker[string, string](zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Start(ctx, worker.StartConfig{Cmd: "cat"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_Start_FailsForUnknownBinary(t *testing.T) {
	w := worker.NewProcessWorker[string, string](zap.NewNop())

	err := w.Start(context.Background(), worker.StartConfig{Cmd: "/nonexistent/worker"})
	assert.Error(t, err)
}

func TestWorker_Pid(t *testing.T) {
	w := worker.NewProcessWorker[string, string](zap.NewNop())
	assert.Zero(t, w.Pid())

	require.NoError(t, w.Start(context.Background(), worker.StartConfig{Cmd: "cat"}))
	defer w.Kill()

	assert.NotZero(t, w.Pid())
}

func TestWorker_Send_EchoesMessage(t *testing.T) {
	// cat echoes the request line, id included
	w := startWorker(t, worker.StartConfig{Cmd: "cat"})

	for _, data := range []string{"first", "second", "third"} {
		res, err := w.Send(context.Background(), data, worker.SendConfig{Timeout: 5 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, data, res)
	}
}

func TestWorker_Send_FailsIfNotStarted(t *testing.T) {
	w := worker.NewProcessWorker[string, string](zap.NewNop())

	_, err := w.Send(context.Background(), "data", worker.SendConfig{})
	assert.ErrorIs(t, err, worker.ErrWorkerNotStarted)
}

func TestWorker_Send_FailsOnMismatchedID(t *testing.T) {
	w := startWorker(t, shell(`read line; echo '{"id":7,"data":"x"}'; cat`))

	_, err := w.Send(context.Background(), "data", worker.SendConfig{Timeout: 5 * time.Second})
	assert.ErrorIs(t, err, worker.ErrUnexpectedMessageID)
}

func TestWorker_Send_Timeout(t *testing.T) {
	w := startWorker(t, shell(`sleep 10`))

	_, err := w.Send(context.Background(), "data", worker.SendConfig{Timeout: 50 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_Send_FailsIfWorkerExits(t *testing.T) {
	w := startWorker(t, shell(`read line; echo boom >&2; exit 3`))

	_, err := w.Send(context.Background(), "data", worker.SendConfig{Timeout: 5 * time.Second})
	assert.Error(t, err)
}

func TestWorker_Send_PassesEnv(t *testing.T) {
	w := startWorker(t, worker.StartConfig{
		Cmd:  "sh",
		Args: []string{"-c", `read line; printf '{"id":0,"data":"%s"}\n' "$WORKER_VALUE"`},
		Env:  map[string]string{"WORKER_VALUE": "from-env"},
	})

	res, err := w.Send(context.Background(), "data", worker.SendConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "from-env", res)
}

func TestWorker_Wait_ReturnsExitCode(t *testing.T) {
	w := startWorker(t, shell(`exit 3`))

	evt, err := w.WaitFor(context.Background(), 5*time.Second)
	require.NoError(t, err)

	require.NotNil(t, evt.Code)
	assert.Equal(t, 3, *evt.Code)
	assert.Nil(t, evt.Signal)
}

func TestWorker_Wait_CapturesStderr(t *testing.T) {
	w := startWorker(t, shell(`echo error >&2`))

	evt, err := w.WaitFor(context.Background(), 5*time.Second)
	require.NoError(t, err)

	require.NotNil(t, evt.Code)
	assert.Equal(t, 0, *evt.Code)
	assert.Equal(t, "error\n", evt.Stderr)
}

func TestWorker_Wait_CanBeCalledTwice(t *testing.T) {
	w := startWorker(t, worker.StartConfig{Cmd: "true"})

	first, err := w.WaitFor(context.Background(), 5*time.Second)
	require.NoError(t, err)

	second, err := w.WaitFor(context.Background(), 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWorker_Wait_ReturnsErrorIfContextCancelled(t *testing.T) {
	w := startWorker(t, worker.StartConfig{Cmd: "cat"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_WaitFor_ReturnsErrorIfTimeout(t *testing.T) {
	w := startWorker(t, shell(`sleep 1`))

	_, err := w.WaitFor(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_Terminate_FailsIfNotStarted(t *testing.T) {
	w := worker.NewProcessWorker[string, string](zap.NewNop())

	assert.ErrorIs(t, w.Terminate(), worker.ErrWorkerNotStarted)
	assert.ErrorIs(t, w.Kill(), worker.ErrWorkerNotStarted)
}
