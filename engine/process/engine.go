package process

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/internal/execution"
)

type Config = execution.Config

type Params struct {
	// Context bounds the lifetime of the worker processes.
	Context context.Context

	// Config is the dispatcher and worker configuration.
	Config Config

	// Log is the logger to use for the engine.
	Log *zap.Logger
}

// Engine hands descriptors to worker processes. Workers receive
// {"id":n,"data":<descriptor>} lines and answer with
// {"id":n,"data":<envelope>}.
type Engine struct {
	dispatcher execution.Dispatcher[bridge.RequestDescriptor, json.RawMessage]
	log        *zap.Logger
}

var _ bridge.Engine = (*Engine)(nil)

func New(params Params) (*Engine, error) {
	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	if params.Config.Supervisor.StartParams.Cmd == "" {
		return nil, fmt.Errorf("no worker command configured")
	}

	d, err := execution.NewDispatcher[bridge.RequestDescriptor, json.RawMessage](execution.Params{
		Context: params.Context,
		Config:  params.Config,
		Log:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating dispatcher: %w", err)
	}

	return &Engine{
		dispatcher: d,
		log:        log.Named("engine_process"),
	}, nil
}

func (e *Engine) Start(ctx context.Context) error {
	return e.dispatcher.Start(ctx)
}

func (e *Engine) Shutdown(ctx context.Context) error {
	return e.dispatcher.Shutdown(ctx)
}

// Handle sends req to a worker and returns its raw envelope.
func (e *Engine) Handle(ctx context.Context, req bridge.RequestDescriptor) ([]byte, error) {
	res, err := e.dispatcher.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	return res, nil
}
