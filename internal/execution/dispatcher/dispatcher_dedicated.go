package dispatcher

import (
	"context"
	"fmt"

	"github.com/lambda-feedback/shimbridge/internal/execution/supervisor"
	"go.uber.org/zap"
)

// DedicatedDispatcher sends all messages to a single supervisor.
// Messages are handled one at a time.
type DedicatedDispatcher[I, O any] struct {
	supervisor supervisor.Supervisor[I, O]
	log        *zap.Logger
}

var _ Dispatcher[any, any] = (*DedicatedDispatcher[any, any])(nil)

type DedicatedDispatcherConfig struct {
	// Supervisor is the configuration to use for the supervisor
	Supervisor supervisor.Config `conf:",squash"`
}

type DedicatedDispatcherParams[I, O any] struct {
	// Config is the config for the dispatcher and the underlying supervisor
	Config DedicatedDispatcherConfig

	// SupervisorFactory is the factory function to create the supervisor
	SupervisorFactory SupervisorFactory[I, O]

	// Log is the logger to use for the dispatcher
	Log *zap.Logger
}

func NewDedicatedDispatcher[I, O any](
	params DedicatedDispatcherParams[I, O],
) (*DedicatedDispatcher[I, O], error) {
	if params.SupervisorFactory == nil {
		params.SupervisorFactory = defaultSupervisorFactory[I, O]
	}

	sv, err := params.SupervisorFactory(supervisor.Params[I, O]{
		Config: params.Config.Supervisor,
		Log:    params.Log,
	})
	if err != nil {
		return nil, err
	}

	return &DedicatedDispatcher[I, O]{
		supervisor: sv,
		log:        params.Log.Named("dispatcher_dedicated"),
	}, nil
}

func (d *DedicatedDispatcher[I, O]) Start(ctx context.Context) error {
	d.log.Debug("booting")

	if err := d.supervisor.Start(ctx); err != nil {
		d.log.Error("error booting", zap.Error(err))
		return err
	}

	return nil
}

func (d *DedicatedDispatcher[I, O]) Send(ctx context.Context, data I) (O, error) {
	var zero O

	res, err := d.supervisor.Send(ctx, data)
	if res != nil && res.Release != nil {
		if releaseErr := res.Release(ctx); releaseErr != nil {
			d.log.Error("error releasing worker", zap.Error(releaseErr))
		}
	}

	if err != nil {
		return zero, fmt.Errorf("error sending data: %w", err)
	}

	return res.Data, nil
}

// Shutdown stops the dispatcher and waits for the worker to finish.
func (d *DedicatedDispatcher[I, O]) Shutdown(ctx context.Context) error {
	d.log.Debug("shutting down")

	wait, err := d.supervisor.Shutdown(ctx)
	if err != nil {
		d.log.Error("error shutting down", zap.Error(err))
		return err
	}

	if err := wait(); err != nil {
		d.log.Error("error waiting for shut down", zap.Error(err))
		return err
	}

	return nil
}
