package engine_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/engine"
	"github.com/lambda-feedback/shimbridge/engine/process"
	"github.com/lambda-feedback/shimbridge/engine/router"
	"github.com/lambda-feedback/shimbridge/engine/rpc"
)

func TestNew_DefaultsToRouter(t *testing.T) {
	e, err := engine.New(engine.Params{Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	assert.IsType(t, &router.Engine{}, e)
}

func TestNew_Router(t *testing.T) {
	e, err := engine.New(engine.Params{
		Config: engine.Config{Type: engine.RouterEngine},
		Log:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	data, err := e.Handle(context.Background(), bridgeGet("/test"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "This is a test route.")
}

func TestNew_Process(t *testing.T) {
	config := engine.Config{Type: engine.ProcessEngine}
	config.Process.Supervisor.StartParams.Cmd = "cat"

	e, err := engine.New(engine.Params{Config: config, Log: zaptest.NewLogger(t)})
	require.NoError(t, err)

	assert.IsType(t, &process.Engine{}, e)
}

func TestNew_Process_RequiresCommand(t *testing.T) {
	_, err := engine.New(engine.Params{
		Config: engine.Config{Type: engine.ProcessEngine},
		Log:    zaptest.NewLogger(t),
	})
	assert.Error(t, err)
}

func TestNew_RPC(t *testing.T) {
	e, err := engine.New(engine.Params{
		Config: engine.Config{Type: engine.RPCEngine},
		Log:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	assert.IsType(t, &rpc.Engine{}, e)
}

func TestNew_Unsupported(t *testing.T) {
	_, err := engine.New(engine.Params{
		Config: engine.Config{Type: "wasm"},
		Log:    zaptest.NewLogger(t),
	})
	assert.ErrorIs(t, err, engine.ErrUnsupportedEngine)
}

func bridgeGet(path string) bridge.RequestDescriptor {
	return bridge.NewDescriptor(http.MethodGet, path, nil, bridge.NoBody())
}

func TestConfig_Parallelism(t *testing.T) {
	_, ok := engine.Config{}.Parallelism()
	assert.False(t, ok, "router engine is not bounded")

	_, ok = engine.Config{Type: engine.RPCEngine}.Parallelism()
	assert.False(t, ok, "rpc engine is not bounded")

	cfg := engine.Config{Type: engine.ProcessEngine}
	cfg.Process.MaxWorkers = 2

	n, ok := cfg.Parallelism()
	require.True(t, ok)
	assert.Equal(t, 2, n)

	cfg.Process.Persistent = true

	n, ok = cfg.Parallelism()
	require.True(t, ok)
	assert.Equal(t, 1, n)
}
