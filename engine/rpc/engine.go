package rpc

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"net"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/internal/execution/worker"
)

const handleMethod = ServiceName + "_handle"

type Params struct {
	// Config is the rpc engine configuration.
	Config Config

	// Log is the logger to use for the engine.
	Log *zap.Logger
}

// Engine forwards descriptors to an engine served over json-rpc.
type Engine struct {
	config Config
	client *gethrpc.Client
	worker *worker.ProcessWorker[any, any]
	log    *zap.Logger
}

var _ bridge.Engine = (*Engine)(nil)

func New(params Params) *Engine {
	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		config: params.Config,
		log:    log.Named("engine_rpc"),
	}
}

// NewWithClient creates an engine using an already connected client.
func NewWithClient(client *gethrpc.Client, log *zap.Logger) *Engine {
	e := New(Params{Log: log})
	e.client = client
	return e
}

// Start boots the worker, if configured, and connects to the engine.
func (e *Engine) Start(ctx context.Context) error {
	if e.client != nil {
		return nil
	}

	if e.config.Worker.Cmd != "" {
		if err := e.startWorker(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.dialTimeout())
	defer cancel()

	return e.dialWithRetry(ctx, 100*time.Millisecond, 2*time.Second)
}

func (e *Engine) startWorker(ctx context.Context) error {
	params := e.config.Worker

	params.Env = maps.Clone(params.Env)
	if params.Env == nil {
		params.Env = make(map[string]string, 2)
	}
	params.Env[TransportEnv] = string(e.config.transport())
	params.Env[EndpointEnv] = e.config.endpoint()

	w := worker.NewProcessWorker[any, any](e.log)
	if err := w.Start(ctx, params); err != nil {
		return fmt.Errorf("error starting worker: %w", err)
	}

	e.worker = w

	return nil
}

// Handle calls engine_handle on the remote engine.
func (e *Engine) Handle(ctx context.Context, req bridge.RequestDescriptor) ([]byte, error) {
	if e.client == nil {
		return nil, errors.New("rpc client not connected")
	}

	var result string
	if err := e.client.CallContext(ctx, &result, handleMethod, req); err != nil {
		return nil, fmt.Errorf("error calling %s: %w", handleMethod, err)
	}

	return []byte(result), nil
}

// Shutdown closes the connection and stops the worker.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.client != nil {
		e.client.Close()
	}

	if e.worker == nil {
		return nil
	}

	if err := e.worker.Terminate(); err != nil {
		return err
	}

	if _, err := e.worker.WaitFor(ctx, e.config.StopTimeout); err != nil {
		e.log.Warn("worker did not stop, killing it", zap.Error(err))
		return e.worker.Kill()
	}

	return nil
}

func (e *Engine) dialWithRetry(
	ctx context.Context,
	baseDelay time.Duration,
	maxDelay time.Duration,
) error {
	for i := 0; ; i++ {
		client, err := e.dial(ctx)
		if err == nil {
			e.client = client
			return nil
		}

		if errors.Is(err, ErrUnsupportedTransport) {
			return err
		}

		backoff := baseDelay * time.Duration(math.Pow(2, float64(i)))
		if backoff > maxDelay {
			backoff = maxDelay
		}

		e.log.Debug("error dialing rpc",
			zap.Int("retry", i),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("error dialing rpc: %w", err)
		}
	}
}

func (e *Engine) dial(ctx context.Context) (*gethrpc.Client, error) {
	endpoint := e.config.endpoint()

	switch e.config.transport() {
	case IPCTransport:
		return gethrpc.DialIPC(ctx, endpoint)
	case HTTPTransport:
		return gethrpc.DialHTTP(endpoint)
	case WSTransport:
		return gethrpc.DialWebsocket(ctx, endpoint, "")
	case TCPTransport:
		conn, err := new(net.Dialer).DialContext(ctx, "tcp", endpoint)
		if err != nil {
			return nil, err
		}
		return gethrpc.DialIO(ctx, conn, conn)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, e.config.Transport)
}
