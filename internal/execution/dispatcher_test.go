package execution_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/internal/execution"
	"github.com/lambda-feedback/shimbridge/internal/execution/dispatcher"
)

func TestNewDispatcher_Pooled(t *testing.T) {
	d, err := execution.NewDispatcher[string, string](execution.Params{
		Context: context.Background(),
		Config:  execution.Config{MaxWorkers: 2},
		Log:     zap.NewNop(),
	})
	require.NoError(t, err)

	assert.IsType(t, &dispatcher.PooledDispatcher[string, string]{}, d)
}

func TestNewDispatcher_Persistent(t *testing.T) {
	d, err := execution.NewDispatcher[string, string](execution.Params{
		Context: context.Background(),
		Config:  execution.Config{Persistent: true},
		Log:     zap.NewNop(),
	})
	require.NoError(t, err)

	assert.IsType(t, &dispatcher.DedicatedDispatcher[string, string]{}, d)
}

func TestConfig_Workers(t *testing.T) {
	assert.Equal(t, 1, execution.Config{Persistent: true, MaxWorkers: 8}.Workers())
	assert.Equal(t, 8, execution.Config{MaxWorkers: 8}.Workers())
	assert.Equal(t, dispatcher.DefaultMaxWorkers(), execution.Config{}.Workers())
}
