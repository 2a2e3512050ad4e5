package dispatcher

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jackc/puddle/v2"
	"github.com/lambda-feedback/shimbridge/internal/execution/supervisor"
	"go.uber.org/zap"
)

// PooledDispatcher sends messages to a pool of supervisors, so up to
// MaxWorkers messages are handled at once.
type PooledDispatcher[I, O any] struct {
	ctx  context.Context
	pool *puddle.Pool[supervisor.Supervisor[I, O]]
	log  *zap.Logger
}

var _ Dispatcher[any, any] = (*PooledDispatcher[any, any])(nil)

// DefaultMaxWorkers is the pool size used if none is configured.
func DefaultMaxWorkers() int {
	return runtime.NumCPU()
}

type PooledDispatcherConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Defaults to the number of cpu cores.
	MaxWorkers int `conf:"max_workers"`

	// Supervisor is the configuration to use for the supervisors
	Supervisor supervisor.Config `conf:",squash"`
}

type PooledDispatcherParams[I, O any] struct {
	// Context bounds the lifetime of the pooled workers
	Context context.Context

	// Config is the config for the dispatcher and the underlying supervisors
	Config PooledDispatcherConfig

	// SupervisorFactory is the factory function to create a new supervisor
	SupervisorFactory SupervisorFactory[I, O]

	// Log is the logger to use for the dispatcher
	Log *zap.Logger
}

func NewPooledDispatcher[I, O any](
	params PooledDispatcherParams[I, O],
) (*PooledDispatcher[I, O], error) {
	if params.SupervisorFactory == nil {
		params.SupervisorFactory = defaultSupervisorFactory[I, O]
	}

	if params.Context == nil {
		params.Context = context.Background()
	}

	pool, err := createPool(params)
	if err != nil {
		return nil, err
	}

	return &PooledDispatcher[I, O]{
		ctx:  params.Context,
		pool: pool,
		log:  params.Log.Named("dispatcher_pooled"),
	}, nil
}

func (d *PooledDispatcher[I, O]) Start(context.Context) error {
	// workers are created lazily on acquire
	return nil
}

func (d *PooledDispatcher[I, O]) Send(ctx context.Context, data I) (O, error) {
	var zero O

	resource, err := d.pool.Acquire(ctx)
	if err != nil {
		return zero, fmt.Errorf("error acquiring supervisor: %w", err)
	}

	res, err := resource.Value().Send(ctx, data)

	// the caller gets its result right away, the supervisor
	// is returned to the pool in the background
	go d.dispose(resource, res, err)

	if err != nil {
		return zero, fmt.Errorf("error sending data: %w", err)
	}

	return res.Data, nil
}

func (d *PooledDispatcher[I, O]) dispose(
	resource *puddle.Resource[supervisor.Supervisor[I, O]],
	res *supervisor.Result[O],
	sendErr error,
) {
	if res != nil && res.Release != nil {
		if err := res.Release(d.ctx); err != nil {
			d.log.Error("destroying supervisor after release failed", zap.Error(err))
			resource.Destroy()
			return
		}
	}

	if sendErr != nil {
		d.log.Debug("destroying supervisor due to error", zap.Error(sendErr))
		resource.Destroy()
		return
	}

	resource.Release()
}

// Shutdown closes the pool. It blocks until all supervisors were
// returned and shut down.
func (d *PooledDispatcher[I, O]) Shutdown(context.Context) error {
	d.log.Debug("shutting down")
	d.pool.Close()
	return nil
}

func createPool[I, O any](
	params PooledDispatcherParams[I, O],
) (*puddle.Pool[supervisor.Supervisor[I, O]], error) {
	log := params.Log.Named("dispatcher_pool")

	maxWorkers := params.Config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers()
	}

	constructor := func(ctx context.Context) (supervisor.Supervisor[I, O], error) {
		sv, err := params.SupervisorFactory(supervisor.Params[I, O]{
			Config: params.Config.Supervisor,
			Log:    params.Log,
		})
		if err != nil {
			return nil, err
		}

		if err := sv.Start(ctx); err != nil {
			return nil, err
		}

		return sv, nil
	}

	destructor := func(sv supervisor.Supervisor[I, O]) {
		wait, err := sv.Shutdown(params.Context)
		if err != nil {
			log.Error("error shutting down supervisor", zap.Error(err))
			return
		}

		if err := wait(); err != nil {
			log.Error("error waiting for supervisor to shut down", zap.Error(err))
		}
	}

	return puddle.NewPool(&puddle.Config[supervisor.Supervisor[I, O]]{
		Constructor: constructor,
		Destructor:  destructor,
		MaxSize:     int32(maxWorkers),
	})
}
