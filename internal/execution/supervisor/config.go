package supervisor

import (
	"errors"

	"github.com/lambda-feedback/shimbridge/internal/execution/worker"
)

var (
	ErrUnsupportedIOMode = errors.New("unsupported io interface")
	ErrNoWorker          = errors.New("no worker provided")
)

// IOInterface describes how the supervisor talks to its worker.
type IOInterface string

const (
	// StdIO exchanges JSON lines over stdin and stdout. The worker
	// process is kept alive between messages.
	StdIO IOInterface = "stdio"

	// FileIO passes request and response as files. A new worker
	// process is started for each message.
	FileIO IOInterface = "file"
)

// StartConfig describes the configuration for starting the worker.
type StartConfig = worker.StartConfig

// StopConfig describes the configuration for stopping the worker.
type StopConfig = worker.StopConfig

// SendConfig describes the configuration for sending messages to the worker.
type SendConfig = worker.SendConfig

type Config struct {
	// IO is the interface used to communicate with the worker.
	// Default is "stdio".
	IO IOInterface `conf:"io"`

	// StartParams are the parameters to pass to the worker when
	// starting it.
	StartParams StartConfig `conf:",squash"`

	// StopParams are the parameters to pass to the worker when
	// terminating it.
	StopParams StopConfig `conf:"stop"`

	// SendParams are the parameters to pass to the worker when
	// sending a message.
	SendParams SendConfig `conf:"send"`
}
