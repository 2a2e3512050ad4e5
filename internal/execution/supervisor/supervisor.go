package supervisor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Supervisor[I, O any] interface {
	// Start starts the supervisor. If the worker is persistent, this
	// boots the worker. If the worker is transient, this is a no-op.
	Start(context.Context) error

	// Send sends a message to the worker. Persistent workers are
	// reused; transient workers are booted for the message and
	// terminated once the result is released.
	Send(context.Context, I) (*Result[O], error)

	// Shutdown terminates the worker. The returned func waits for
	// the worker to exit.
	Shutdown(context.Context) (WaitFunc, error)
}

type Result[O any] struct {
	// Data is the response of the worker
	Data O

	// Release disposes of the worker after a message. It must be
	// called once the caller is done with the result.
	Release ReleaseFunc
}

type Params[I, O any] struct {
	// Config is the config used to set up the supervisor and its workers.
	Config Config

	// AdapterFactory creates the communication adapter for a worker.
	AdapterFactory AdapterFactoryFn[I, O]

	// WorkerFactory creates the worker driven by an adapter.
	WorkerFactory WorkerFactoryFn[I, O]

	// Log is the logger to use for the supervisor
	Log *zap.Logger
}

type WorkerSupervisor[I, O any] struct {
	persistent bool

	sendLock sync.Mutex

	createAdapter func() (Adapter[I, O], error)

	worker     Adapter[I, O]
	workerLock sync.Mutex

	startParams StartConfig
	stopParams  StopConfig
	sendParams  SendConfig

	log *zap.Logger
}

var _ Supervisor[any, any] = (*WorkerSupervisor[any, any])(nil)

func New[I, O any](params Params[I, O]) (Supervisor[I, O], error) {
	config := params.Config

	if params.WorkerFactory == nil {
		params.WorkerFactory = defaultWorkerFactory[I, O]
	}

	if params.AdapterFactory == nil {
		params.AdapterFactory = defaultAdapterFactory[I, O]
	}

	log := params.Log.Named("supervisor")

	createAdapter := func() (Adapter[I, O], error) {
		adapter, err := params.AdapterFactory(params.WorkerFactory, config.IO, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create adapter: %w", err)
		}

		return adapter, nil
	}

	// file workers exit after every message
	persistent := config.IO != FileIO

	return &WorkerSupervisor[I, O]{
		createAdapter: createAdapter,
		persistent:    persistent,
		startParams:   config.StartParams,
		stopParams:    config.StopParams,
		sendParams:    config.SendParams,
		log:           log,
	}, nil
}

func (s *WorkerSupervisor[I, O]) Start(ctx context.Context) error {
	if !s.persistent {
		return nil
	}

	if _, err := s.acquireWorker(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	return nil
}

func (s *WorkerSupervisor[I, O]) Send(ctx context.Context, data I) (*Result[O], error) {
	// a worker handles one message at a time
	s.sendLock.Lock()
	defer s.sendLock.Unlock()

	w, err := s.acquireWorker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire worker: %w", err)
	}

	res, err := w.Send(ctx, data, s.sendParams)
	if err != nil {
		// the worker may still be busy with the message,
		// so it cannot be reused
		if release, stopErr := s.terminateWorker(); stopErr == nil {
			return &Result[O]{Release: release}, err
		}

		return nil, err
	}

	release, err := s.releaseWorker()
	if err != nil {
		release = func(context.Context) error {
			return fmt.Errorf("failed to release worker: %w", err)
		}
	}

	return &Result[O]{
		Data:    res,
		Release: release,
	}, nil
}

func (s *WorkerSupervisor[I, O]) Shutdown(ctx context.Context) (WaitFunc, error) {
	release, err := s.terminateWorker()
	if err != nil {
		return nil, err
	}

	return func() error {
		return release(ctx)
	}, nil
}

func (s *WorkerSupervisor[I, O]) acquireWorker(ctx context.Context) (Adapter[I, O], error) {
	s.workerLock.Lock()
	defer s.workerLock.Unlock()

	if s.worker != nil {
		return s.worker, nil
	}

	w, err := s.bootWorker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to boot worker: %w", err)
	}

	s.worker = w

	return w, nil
}

func (s *WorkerSupervisor[I, O]) releaseWorker() (ReleaseFunc, error) {
	// persistent workers are kept alive for future messages
	if s.persistent {
		return noopReleaseFunc, nil
	}

	s.log.Debug("transient: releasing worker")

	return s.terminateWorker()
}

func (s *WorkerSupervisor[I, O]) terminateWorker() (ReleaseFunc, error) {
	s.workerLock.Lock()
	defer s.workerLock.Unlock()

	if s.worker == nil {
		s.log.Debug("no worker to release")
		return noopReleaseFunc, nil
	}

	w := s.worker
	s.worker = nil

	return w.Stop(s.stopParams)
}

func (s *WorkerSupervisor[I, O]) bootWorker(ctx context.Context) (Adapter[I, O], error) {
	adapter, err := s.createAdapter()
	if err != nil {
		return nil, err
	}

	if err := adapter.Start(ctx, s.startParams); err != nil {
		return nil, err
	}

	return adapter, nil
}
