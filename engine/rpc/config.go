package rpc

import (
	"errors"
	"runtime"
	"time"

	"github.com/lambda-feedback/shimbridge/internal/execution/worker"
)

var ErrUnsupportedTransport = errors.New("unsupported rpc transport")

// Transport is the mechanism used to reach the rpc engine.
type Transport string

const (
	// IPCTransport uses unix sockets or windows named pipes.
	IPCTransport Transport = "ipc"

	// HTTPTransport uses json-rpc over http.
	HTTPTransport Transport = "http"

	// WSTransport uses json-rpc over websockets.
	WSTransport Transport = "ws"

	// TCPTransport uses a plain tcp stream.
	TCPTransport Transport = "tcp"
)

const (
	// TransportEnv and EndpointEnv tell a spawned worker where to listen.
	TransportEnv = "SHIMBRIDGE_RPC_TRANSPORT"
	EndpointEnv  = "SHIMBRIDGE_RPC_ENDPOINT"
)

type Config struct {
	// Transport is the transport used to reach the engine.
	// Default is "ipc".
	Transport Transport `conf:"transport"`

	// Endpoint is the socket path or pipe name for ipc, the url for
	// http and ws, or the address for tcp.
	Endpoint string `conf:"endpoint"`

	// DialTimeout bounds the time spent connecting to the engine.
	DialTimeout time.Duration `conf:"dial_timeout"`

	// Worker optionally starts the process serving the endpoint.
	Worker worker.StartConfig `conf:"worker"`

	// StopTimeout is the time the worker is given to exit.
	StopTimeout time.Duration `conf:"stop_timeout"`
}

func (c Config) transport() Transport {
	if c.Transport == "" {
		return IPCTransport
	}

	return c.Transport
}

func (c Config) endpoint() string {
	if c.Endpoint != "" || c.transport() != IPCTransport {
		return c.Endpoint
	}

	if runtime.GOOS == "windows" {
		return `\\.\pipe\shimbridge`
	}

	return "/tmp/shimbridge.sock"
}

func (c Config) dialTimeout() time.Duration {
	if c.DialTimeout <= 0 {
		return 10 * time.Second
	}

	return c.DialTimeout
}
