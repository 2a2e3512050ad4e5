// Package dispatcher routes messages to worker supervisors, either
// through a bounded pool or to a single dedicated supervisor.
package dispatcher

import (
	"context"

	"github.com/lambda-feedback/shimbridge/internal/execution/supervisor"
)

type Dispatcher[I, O any] interface {
	// Send hands a message to a supervisor and waits for its reply.
	// Send blocks while all supervisors are busy.
	Send(context.Context, I) (O, error)

	Start(context.Context) error

	// Shutdown stops accepting messages and releases all supervisors.
	Shutdown(context.Context) error
}

// SupervisorFactory creates the supervisors a dispatcher sends to.
// Tests replace it to avoid spawning processes.
type SupervisorFactory[I, O any] func(supervisor.Params[I, O]) (supervisor.Supervisor[I, O], error)

func defaultSupervisorFactory[I, O any](params supervisor.Params[I, O]) (supervisor.Supervisor[I, O], error) {
	return supervisor.New(params)
}
