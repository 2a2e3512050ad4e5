package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/engine/process"
	"github.com/lambda-feedback/shimbridge/engine/router"
	"github.com/lambda-feedback/shimbridge/engine/rpc"
)

var ErrUnsupportedEngine = errors.New("unsupported engine type")

// Engine is the foreign engine the bridge hands descriptors to.
type Engine = bridge.Engine

// Type selects the engine implementation.
type Type string

const (
	// RouterEngine runs an in-process router.
	RouterEngine Type = "router"

	// ProcessEngine hands requests to worker processes.
	ProcessEngine Type = "process"

	// RPCEngine calls an engine served over json-rpc.
	RPCEngine Type = "rpc"
)

type Config struct {
	// Type is the engine implementation to use.
	// Default is "router".
	Type Type `conf:"type"`

	// Router is the configuration of the router engine.
	Router router.Config `conf:"router"`

	// Process is the configuration of the process engine.
	Process process.Config `conf:"process"`

	// RPC is the configuration of the rpc engine.
	RPC rpc.Config `conf:"rpc"`
}

// Parallelism is the number of calls the engine itself can handle at
// once. ok is false if the engine does not bound it, as the router
// and rpc engines leave that to the bridge or the remote side.
func (c Config) Parallelism() (n int, ok bool) {
	if c.engineType() == ProcessEngine {
		return c.Process.Workers(), true
	}

	return 0, false
}

type Params struct {
	// Context bounds the lifetime of engine resources, e.g. worker
	// processes.
	Context context.Context

	// Config is the engine configuration.
	Config Config

	// Log is the logger to use for the engine.
	Log *zap.Logger
}

// New creates the engine selected by the config type.
func New(params Params) (Engine, error) {
	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	ctx := params.Context
	if ctx == nil {
		ctx = context.Background()
	}

	config := params.Config

	log.Debug("creating engine", zap.String("type", string(config.engineType())))

	switch config.engineType() {
	case RouterEngine:
		return router.New(router.Params{
			Config: config.Router,
			Log:    log,
		})

	case ProcessEngine:
		return process.New(process.Params{
			Context: ctx,
			Config:  config.Process,
			Log:     log,
		})

	case RPCEngine:
		return rpc.New(rpc.Params{
			Config: config.RPC,
			Log:    log,
		}), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, config.Type)
}

func (c Config) engineType() Type {
	if c.Type == "" {
		return RouterEngine
	}

	return c.Type
}
