package dispatcher_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/lambda-feedback/shimbridge/internal/execution/dispatcher"
	"github.com/lambda-feedback/shimbridge/internal/execution/supervisor"
)

func newPooled(
	t *testing.T,
	maxWorkers int,
	factory dispatcher.SupervisorFactory[string, string],
) *dispatcher.PooledDispatcher[string, string] {
	d, err := dispatcher.NewPooledDispatcher(dispatcher.PooledDispatcherParams[string, string]{
		Config:            dispatcher.PooledDispatcherConfig{MaxWorkers: maxWorkers},
		SupervisorFactory: factory,
		Context:           context.Background(),
		Log:               zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	return d
}

func TestPooledDispatcher_New_UsesCPUCoreFallback(t *testing.T) {
	d, err := dispatcher.NewPooledDispatcher(dispatcher.PooledDispatcherParams[string, string]{
		Config: dispatcher.PooledDispatcherConfig{MaxWorkers: 0},
		Log:    zap.NewNop(),
	})
	require.NoError(t, err)
	assert.NotNil(t, d)

	assert.NoError(t, d.Start(context.Background()))
	assert.NoError(t, d.Shutdown(context.Background()))
}

func TestPooledDispatcher_Send(t *testing.T) {
	var released atomic.Bool

	sv := new(mockSupervisor)
	sv.On("Start", mock.Anything).Return(nil).Once()
	sv.On("Send", mock.Anything, "data").Return(&supervisor.Result[string]{
		Data: "result",
		Release: func(context.Context) error {
			released.Store(true)
			return nil
		},
	}, nil)
	sv.On("Shutdown", mock.Anything).Return(noWait(), nil)

	d := newPooled(t, 1, factoryOf(sv))

	res, err := d.Send(context.Background(), "data")
	require.NoError(t, err)
	assert.Equal(t, "result", res)

	// close blocks until the supervisor was returned
	require.NoError(t, d.Shutdown(context.Background()))

	assert.True(t, released.Load())
	sv.AssertExpectations(t)
}

func TestPooledDispatcher_Send_ReusesSupervisor(t *testing.T) {
	var created atomic.Int32

	sv := new(mockSupervisor)
	sv.On("Start", mock.Anything).Return(nil)
	sv.On("Send", mock.Anything, "data").Return(&supervisor.Result[string]{Data: "result"}, nil)
	sv.On("Shutdown", mock.Anything).Return(noWait(), nil)

	factory := func(supervisor.Params[string, string]) (supervisor.Supervisor[string, string], error) {
		created.Add(1)
		return sv, nil
	}

	d := newPooled(t, 1, factory)

	for i := 0; i < 3; i++ {
		_, err := d.Send(context.Background(), "data")
		require.NoError(t, err)
	}

	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, int32(1), created.Load())
}

func TestPooledDispatcher_Send_FailsToCreateSupervisor(t *testing.T) {
	factory := func(supervisor.Params[string, string]) (supervisor.Supervisor[string, string], error) {
		return nil, assert.AnError
	}

	d := newPooled(t, 1, factory)

	_, err := d.Send(context.Background(), "data")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPooledDispatcher_Send_FailsToStartSupervisor(t *testing.T) {
	sv := new(mockSupervisor)
	sv.On("Start", mock.Anything).Return(assert.AnError)

	d := newPooled(t, 1, factoryOf(sv))

	_, err := d.Send(context.Background(), "data")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPooledDispatcher_Send_Fails_DestroysSupervisor(t *testing.T) {
	destroyed := make(chan struct{})

	sv := new(mockSupervisor)
	sv.On("Start", mock.Anything).Return(nil)
	sv.On("Send", mock.Anything, "data").Return(nil, assert.AnError)
	sv.On("Shutdown", mock.Anything).Return(noWait(), nil).Once().Run(func(mock.Arguments) {
		close(destroyed)
	})

	d := newPooled(t, 1, factoryOf(sv))

	_, err := d.Send(context.Background(), "data")
	assert.ErrorIs(t, err, assert.AnError)

	select {
	case <-destroyed:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor was not destroyed")
	}

	require.NoError(t, d.Shutdown(context.Background()))
}

func TestPooledDispatcher_Send_ReleaseError_DestroysSupervisor(t *testing.T) {
	sv := new(mockSupervisor)
	sv.On("Start", mock.Anything).Return(nil)
	sv.On("Send", mock.Anything, "data").Return(&supervisor.Result[string]{
		Data: "result",
		Release: func(context.Context) error {
			return assert.AnError
		},
	}, nil)
	sv.On("Shutdown", mock.Anything).Return(noWait(), nil)

	d := newPooled(t, 1, factoryOf(sv))

	res, err := d.Send(context.Background(), "data")
	require.NoError(t, err)
	assert.Equal(t, "result", res)

	require.NoError(t, d.Shutdown(context.Background()))
	sv.AssertCalled(t, "Shutdown", mock.Anything)
}

// blockingSupervisor blocks in Send until released.
type blockingSupervisor struct {
	entered chan<- struct{}
	release <-chan struct{}
}

func (s *blockingSupervisor) Start(context.Context) error { return nil }

func (s *blockingSupervisor) Send(_ context.Context, data string) (*supervisor.Result[string], error) {
	s.entered <- struct{}{}
	<-s.release
	return &supervisor.Result[string]{Data: data}, nil
}

func (s *blockingSupervisor) Shutdown(context.Context) (supervisor.WaitFunc, error) {
	return noWait(), nil
}

func TestPooledDispatcher_Send_Concurrent(t *testing.T) {
	const workers = 3

	entered := make(chan struct{}, workers)
	release := make(chan struct{})

	factory := func(supervisor.Params[string, string]) (supervisor.Supervisor[string, string], error) {
		return &blockingSupervisor{entered: entered, release: release}, nil
	}

	d := newPooled(t, workers, factory)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Send(context.Background(), "data")
			assert.NoError(t, err)
		}()
	}

	// all sends are in flight at once
	for i := 0; i < workers; i++ {
		select {
		case <-entered:
		case <-time.After(5 * time.Second):
			t.Fatal("sends were not handled concurrently")
		}
	}

	close(release)
	wg.Wait()

	require.NoError(t, d.Shutdown(context.Background()))
}
