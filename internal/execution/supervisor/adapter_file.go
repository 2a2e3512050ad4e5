package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/lambda-feedback/shimbridge/internal/execution/worker"
	"go.uber.org/zap"
)

const (
	RequestFileEnv  = "REQUEST_FILE_NAME"
	ResponseFileEnv = "RESPONSE_FILE_NAME"
)

type fileAdapter[I, O any] struct {
	worker worker.Worker[I, O]

	startParams StartConfig

	log *zap.Logger
}

func newFileAdapter[I, O any](w worker.Worker[I, O], log *zap.Logger) *fileAdapter[I, O] {
	return &fileAdapter[I, O]{
		worker: w,
		log:    log.Named("adapter_file"),
	}
}

func (a *fileAdapter[I, O]) Start(_ context.Context, params StartConfig) error {
	// the worker can only be started once the request file exists,
	// so the start params are kept for Send
	a.startParams = params

	return nil
}

func (a *fileAdapter[I, O]) Send(
	ctx context.Context,
	data I,
	params SendConfig,
) (O, error) {
	var out O

	if a.worker == nil {
		return out, ErrNoWorker
	}

	reqFile, err := os.CreateTemp("", "request-data-*")
	if err != nil {
		return out, fmt.Errorf("error creating request file: %w", err)
	}
	defer os.Remove(reqFile.Name())
	defer reqFile.Close()

	resFile, err := os.CreateTemp("", "response-data-*")
	if err != nil {
		return out, fmt.Errorf("error creating response file: %w", err)
	}
	defer os.Remove(resFile.Name())
	defer resFile.Close()

	if err := json.NewEncoder(reqFile).Encode(worker.Message[I]{Data: data}); err != nil {
		return out, fmt.Errorf("error writing request file: %w", err)
	}

	startParams := a.startParams
	startParams.Args = append(slices.Clone(startParams.Args), reqFile.Name(), resFile.Name())
	startParams.Env = maps.Clone(startParams.Env)
	if startParams.Env == nil {
		startParams.Env = make(map[string]string, 2)
	}
	startParams.Env[RequestFileEnv] = reqFile.Name()
	startParams.Env[ResponseFileEnv] = resFile.Name()

	if err := a.worker.Start(ctx, startParams); err != nil {
		a.log.Error("error starting worker", zap.Error(err))
		return out, err
	}

	evt, err := a.worker.WaitFor(ctx, params.Timeout)
	if err != nil {
		a.log.Error("error waiting for worker to finish", zap.Error(err))
		return out, err
	}

	if evt.Code == nil || *evt.Code != 0 {
		return out, fmt.Errorf("worker failed: %s", evt.Stderr)
	}

	var msg worker.Message[O]
	if err := json.NewDecoder(resFile).Decode(&msg); err != nil {
		return out, fmt.Errorf("error reading response file: %w", err)
	}

	return msg.Data, nil
}

func (a *fileAdapter[I, O]) Stop(params StopConfig) (ReleaseFunc, error) {
	if a.worker == nil {
		return nil, ErrNoWorker
	}

	return stopWorker(a.worker, params)
}
