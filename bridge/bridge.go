package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/lambda-feedback/shimbridge/util"
)

// DefaultMaxConcurrency is the number of calls executed at once if
// no limit is configured.
const DefaultMaxConcurrency = 256

// Engine is the foreign engine a bridge hands calls to. Handle must
// return a serialized response envelope. Unknown routes are expected
// to yield a 404 envelope, not an error.
type Engine interface {
	// Start boots the engine.
	Start(context.Context) error

	// Handle executes a single request and returns the serialized
	// response envelope.
	Handle(context.Context, RequestDescriptor) ([]byte, error)

	// Shutdown stops the engine.
	Shutdown(context.Context) error
}

// Outcome labels how a call completed.
type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	OutcomeFaulted  Outcome = "faulted"
)

// Observer is notified about call activity.
type Observer interface {
	CallStarted()
	CallFinished(outcome Outcome, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) CallStarted()                         {}
func (nopObserver) CallFinished(Outcome, time.Duration) {}

type Config struct {
	// MaxConcurrency is the maximum number of calls executed by the
	// engine at once. Calls beyond the limit wait without blocking
	// the caller.
	MaxConcurrency int `conf:"max_concurrency"`

	// CallTimeout bounds the duration of a single call. Zero
	// disables the timeout.
	CallTimeout time.Duration `conf:"call_timeout"`

	// MaxBodyBytes limits the size of buffered request bodies.
	MaxBodyBytes int64 `conf:"max_body_bytes"`
}

type Params struct {
	// Config is the bridge configuration.
	Config Config

	// Engine is the engine calls are executed on.
	Engine Engine

	// Observer is notified about call activity. Optional.
	Observer Observer

	// Log is the logger to use for the bridge.
	Log *zap.Logger
}

// Bridge is the call interface between a host and a foreign engine.
// Invoke never blocks on the engine; each call runs in its own
// goroutine, bounded by a weighted semaphore.
type Bridge struct {
	engine   Engine
	sem      *semaphore.Weighted
	timeout  time.Duration
	observer Observer

	// mu orders the stopped check and inflight.Add in Invoke against
	// Shutdown, so no call is added once Shutdown waits.
	mu       sync.RWMutex
	stopped  bool
	inflight sync.WaitGroup

	log *zap.Logger
}

// New creates a new bridge.
func New(params Params) (*Bridge, error) {
	if params.Engine == nil {
		return nil, errors.New("no engine provided")
	}

	maxConcurrency := params.Config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	observer := params.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Bridge{
		engine:   params.Engine,
		sem:      semaphore.NewWeighted(int64(maxConcurrency)),
		timeout:  params.Config.CallTimeout,
		observer: observer,
		log:      log.Named("bridge"),
	}, nil
}

// Start boots the underlying engine.
func (b *Bridge) Start(ctx context.Context) error {
	b.log.Debug("starting engine")

	if err := b.engine.Start(ctx); err != nil {
		return fmt.Errorf("error starting engine: %w", err)
	}

	return nil
}

// Shutdown rejects new calls, waits for outstanding calls and stops
// the engine.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		b.log.Warn("outstanding calls did not finish before shutdown")
	}

	b.log.Debug("stopping engine")

	if err := b.engine.Shutdown(ctx); err != nil {
		return fmt.Errorf("error stopping engine: %w", err)
	}

	return nil
}

// Invoke dispatches a call to the engine and returns immediately. The
// returned call resolves once the engine produced an envelope. Engine
// failures never escape: they resolve the call with a 500 envelope.
func (b *Bridge) Invoke(ctx context.Context, req RequestDescriptor) *Call {
	call := newCall(req)
	call.dispatch()

	b.observer.CallStarted()

	b.mu.RLock()
	if b.stopped {
		b.mu.RUnlock()
		b.complete(call, nil, ErrBridgeStopped)
		return call
	}
	b.inflight.Add(1)
	b.mu.RUnlock()

	go b.run(ctx, call)

	return call
}

// InvokeRaw is Invoke taking the request parts. Nil headers mean no
// headers were passed.
func (b *Bridge) InvokeRaw(
	ctx context.Context,
	method string,
	path string,
	headers Headers,
	body Body,
) *Call {
	return b.Invoke(ctx, NewDescriptor(method, path, headers, body))
}

// Do invokes the engine and waits for the serialized envelope.
func (b *Bridge) Do(ctx context.Context, req RequestDescriptor) (string, error) {
	return b.Invoke(ctx, req).Wait(ctx)
}

func (b *Bridge) run(ctx context.Context, call *Call) {
	defer b.inflight.Done()

	if err := b.sem.Acquire(ctx, 1); err != nil {
		b.complete(call, nil, err)
		return
	}
	defer b.sem.Release(1)

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	result, err := b.handle(ctx, call.Descriptor())

	b.complete(call, result, err)
}

func (b *Bridge) handle(ctx context.Context, req RequestDescriptor) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			err = &BridgeFault{Panic: r}
		}
	}()

	return b.engine.Handle(ctx, req)
}

func (b *Bridge) complete(call *Call, result []byte, err error) {
	log := b.log.With(
		zap.String("method", call.descriptor.Method),
		zap.String("path", call.descriptor.Path),
	)

	if err != nil {
		fault := err
		if !IsBridgeFault(err) {
			fault = &BridgeFault{Err: err}
		}

		log.Error("engine call failed", zap.Error(fault))

		b.observer.CallFinished(OutcomeFaulted, call.Elapsed())
		call.faulted(fault, internalErrorResult)
		return
	}

	elapsed := call.Elapsed()
	log.Debug("engine call resolved", zap.Duration("duration", elapsed))

	// observers see the call before waiters do
	b.observer.CallFinished(OutcomeResolved, elapsed)
	call.resolve(string(result))
}

var internalErrorResult = string(util.Must(MarshalEnvelope(InternalErrorEnvelope())))
