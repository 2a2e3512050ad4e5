package supervisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/internal/execution/worker"
)

// stdioAdapter keeps one worker process running and exchanges
// messages with it over its stdio pipes.
type stdioAdapter[I, O any] struct {
	worker worker.Worker[I, O]
	log    *zap.Logger
}

func newStdioAdapter[I, O any](w worker.Worker[I, O], log *zap.Logger) *stdioAdapter[I, O] {
	return &stdioAdapter[I, O]{
		worker: w,
		log:    log.Named("adapter_stdio"),
	}
}

func (a *stdioAdapter[I, O]) Start(ctx context.Context, params StartConfig) error {
	if a.worker == nil {
		return ErrNoWorker
	}

	if err := a.worker.Start(ctx, params); err != nil {
		a.log.Error("failed to start worker", zap.Error(err))
		return err
	}

	a.log.Debug("worker started", zap.Int("pid", a.worker.Pid()))

	return nil
}

func (a *stdioAdapter[I, O]) Send(ctx context.Context, data I, params SendConfig) (O, error) {
	var zero O
	if a.worker == nil {
		return zero, ErrNoWorker
	}

	started := time.Now()

	res, err := a.worker.Send(ctx, data, params)
	if err != nil {
		a.log.Error("failed to exchange message with worker",
			zap.Int("pid", a.worker.Pid()),
			zap.Error(err),
		)
		return zero, err
	}

	a.log.Debug("worker replied", zap.Duration("took", time.Since(started)))

	return res, nil
}

func (a *stdioAdapter[I, O]) Stop(params StopConfig) (ReleaseFunc, error) {
	if a.worker == nil {
		return nil, ErrNoWorker
	}

	return stopWorker(a.worker, params)
}
