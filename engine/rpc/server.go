package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
)

// ServiceName is the rpc namespace the engine is registered under.
const ServiceName = "engine"

type service struct {
	engine bridge.Engine
}

// Handle is exposed as engine_handle. It takes the descriptor in its
// wire form and returns the serialized envelope as a string.
func (s *service) Handle(ctx context.Context, raw json.RawMessage) (string, error) {
	req, err := bridge.UnmarshalDescriptor(raw)
	if err != nil {
		return "", err
	}

	data, err := s.engine.Handle(ctx, req)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// NewServer creates an rpc server exposing engine.
func NewServer(engine bridge.Engine) (*gethrpc.Server, error) {
	srv := gethrpc.NewServer()

	if err := srv.RegisterName(ServiceName, &service{engine: engine}); err != nil {
		return nil, fmt.Errorf("error registering engine service: %w", err)
	}

	return srv, nil
}

// Serve exposes engine on the transport and endpoint of config until
// ctx is done.
func Serve(ctx context.Context, engine bridge.Engine, config Config, log *zap.Logger) error {
	srv, err := NewServer(engine)
	if err != nil {
		return err
	}
	defer srv.Stop()

	endpoint := config.endpoint()

	log = log.With(
		zap.String("transport", string(config.transport())),
		zap.String("endpoint", endpoint),
	)

	switch config.transport() {
	case IPCTransport:
		// remove a stale socket of a previous run
		_ = os.Remove(endpoint)
		l, err := net.Listen("unix", endpoint)
		if err != nil {
			return err
		}
		return serveListener(ctx, srv, l, log)

	case TCPTransport:
		l, err := net.Listen("tcp", endpoint)
		if err != nil {
			return err
		}
		return serveListener(ctx, srv, l, log)

	case HTTPTransport:
		return serveHTTP(ctx, srv, endpoint, log)

	case WSTransport:
		return serveHTTP(ctx, srv.WebsocketHandler([]string{"*"}), endpoint, log)
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedTransport, config.Transport)
}

func serveListener(ctx context.Context, srv *gethrpc.Server, l net.Listener, log *zap.Logger) error {
	log.Info("serving engine")

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ServeListener(l)
	}()

	select {
	case <-ctx.Done():
		l.Close()
		<-errs
		return nil
	case err := <-errs:
		return err
	}
}

func serveHTTP(ctx context.Context, handler http.Handler, endpoint string, log *zap.Logger) error {
	// the endpoint may be given as the url clients dial
	addr := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		addr = u.Host
	}

	httpSrv := &http.Server{Addr: addr, Handler: handler}

	log.Info("serving engine")

	errs := make(chan error, 1)
	go func() {
		errs <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return httpSrv.Shutdown(context.Background())
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
