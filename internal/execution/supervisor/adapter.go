package supervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/lambda-feedback/shimbridge/internal/execution/worker"
	"go.uber.org/zap"
)

type WaitFunc func() error

type ReleaseFunc func(context.Context) error

func noopReleaseFunc(context.Context) error {
	return nil
}

type Adapter[I, O any] interface {
	Start(context.Context, StartConfig) error
	Send(context.Context, I, SendConfig) (O, error)
	Stop(StopConfig) (ReleaseFunc, error)
}

type WorkerFactoryFn[I, O any] func(*zap.Logger) worker.Worker[I, O]

type AdapterFactoryFn[I, O any] func(WorkerFactoryFn[I, O], IOInterface, *zap.Logger) (Adapter[I, O], error)

func defaultAdapterFactory[I, O any](
	workerFactory WorkerFactoryFn[I, O],
	mode IOInterface,
	log *zap.Logger,
) (Adapter[I, O], error) {
	switch mode {
	case StdIO, "":
		return newStdioAdapter(workerFactory(log), log), nil
	case FileIO:
		return newFileAdapter(workerFactory(log), log), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIOMode, mode)
	}
}

func defaultWorkerFactory[I, O any](log *zap.Logger) worker.Worker[I, O] {
	return worker.NewProcessWorker[I, O](log)
}

// stopWorker asks the worker to terminate. The returned release func
// waits for the worker to exit and kills it if it does not in time.
func stopWorker[I, O any](
	w worker.Worker[I, O],
	params StopConfig,
) (ReleaseFunc, error) {
	if err := w.Terminate(); errors.Is(err, worker.ErrWorkerNotStarted) {
		return noopReleaseFunc, nil
	} else if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		if _, err := w.WaitFor(ctx, params.Timeout); err != nil {
			// best effort, the worker is gone either way
			_ = w.Kill()
			return fmt.Errorf("worker did not stop: %w", err)
		}

		return nil
	}, nil
}
