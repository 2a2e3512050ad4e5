package bridge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lambda-feedback/shimbridge/bridge"
)

// funcEngine is an engine backed by a handle function.
type funcEngine struct {
	handle func(context.Context, bridge.RequestDescriptor) ([]byte, error)
}

func (e *funcEngine) Start(context.Context) error    { return nil }
func (e *funcEngine) Shutdown(context.Context) error { return nil }

func (e *funcEngine) Handle(ctx context.Context, req bridge.RequestDescriptor) ([]byte, error) {
	return e.handle(ctx, req)
}

// mockEngine implements bridge.Engine with testify/mock.
type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockEngine) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockEngine) Handle(ctx context.Context, req bridge.RequestDescriptor) ([]byte, error) {
	args := m.Called(ctx, req)

	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// recordingObserver records observer callbacks.
type recordingObserver struct {
	mu       sync.Mutex
	started  int
	outcomes []bridge.Outcome
}

func (o *recordingObserver) CallStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) CallFinished(outcome bridge.Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) snapshot() (int, []bridge.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started, append([]bridge.Outcome(nil), o.outcomes...)
}

func staticEngine(t *testing.T, envelope bridge.ResponseEnvelope) *funcEngine {
	data, err := bridge.MarshalEnvelope(envelope)
	require.NoError(t, err)

	return &funcEngine{
		handle: func(context.Context, bridge.RequestDescriptor) ([]byte, error) {
			return data, nil
		},
	}
}

func newBridge(t *testing.T, engine bridge.Engine, config bridge.Config) *bridge.Bridge {
	b, err := bridge.New(bridge.Params{
		Config: config,
		Engine: engine,
		Log:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	return b
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
