package execution

import (
	"context"

	"github.com/lambda-feedback/shimbridge/internal/execution/dispatcher"
	"github.com/lambda-feedback/shimbridge/internal/execution/supervisor"
	"go.uber.org/zap"
)

type Dispatcher[I, O any] dispatcher.Dispatcher[I, O]

type Config struct {
	// MaxWorkers is the maximum number of concurrent workers
	// when employing a pooled dispatcher.
	MaxWorkers int `conf:"max_workers"`

	// Persistent routes all messages to a single dedicated worker
	// instead of a pool.
	Persistent bool `conf:"persistent"`

	// Supervisor is the configuration to use for the supervisors
	Supervisor supervisor.Config `conf:",squash"`
}

// Workers is the number of messages handled at once: one for a
// persistent worker, the pool size otherwise.
func (c Config) Workers() int {
	switch {
	case c.Persistent:
		return 1
	case c.MaxWorkers > 0:
		return c.MaxWorkers
	default:
		return dispatcher.DefaultMaxWorkers()
	}
}

type Params struct {
	// Context bounds the lifetime of the workers
	Context context.Context

	// Config is the config for the dispatcher and the underlying supervisors
	Config Config

	// Log is the logger to use for the dispatcher
	Log *zap.Logger
}

func NewDispatcher[I, O any](params Params) (Dispatcher[I, O], error) {
	if params.Config.Persistent {
		d, err := dispatcher.NewDedicatedDispatcher(
			dispatcher.DedicatedDispatcherParams[I, O]{
				Config: dispatcher.DedicatedDispatcherConfig{
					Supervisor: params.Config.Supervisor,
				},
				Log: params.Log,
			},
		)
		if err != nil {
			return nil, err
		}

		return d, nil
	}

	d, err := dispatcher.NewPooledDispatcher(
		dispatcher.PooledDispatcherParams[I, O]{
			Config: dispatcher.PooledDispatcherConfig{
				Supervisor: params.Config.Supervisor,
				MaxWorkers: params.Config.MaxWorkers,
			},
			Context: params.Context,
			Log:     params.Log,
		},
	)
	if err != nil {
		return nil, err
	}

	return d, nil
}
