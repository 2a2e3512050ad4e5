package bridge

import (
	"context"
	"sync/atomic"
	"time"
)

// CallState is the lifecycle state of a single bridge call.
type CallState int32

const (
	StateCreated CallState = iota
	StateDispatched
	StateResolved
	StateFaulted
	StateParseFailed
	StateResponded
)

func (s CallState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDispatched:
		return "dispatched"
	case StateResolved:
		return "resolved"
	case StateFaulted:
		return "faulted"
	case StateParseFailed:
		return "parse_failed"
	case StateResponded:
		return "responded"
	default:
		return "unknown"
	}
}

// Call is the handle of one outstanding bridge call. A call moves
// Created -> Dispatched -> (Resolved | Faulted | ParseFailed) ->
// Responded and is never reused.
type Call struct {
	descriptor RequestDescriptor
	state      atomic.Int32
	done       chan struct{}
	started    time.Time

	// written once before done is closed
	result string
	fault  error
}

func newCall(descriptor RequestDescriptor) *Call {
	return &Call{
		descriptor: descriptor,
		done:       make(chan struct{}),
		started:    time.Now(),
	}
}

// Descriptor returns the descriptor the call was created with.
func (c *Call) Descriptor() RequestDescriptor {
	return c.descriptor
}

// State returns the current state of the call.
func (c *Call) State() CallState {
	return CallState(c.state.Load())
}

// Done returns a channel that is closed once the call resolved or
// faulted.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call completes or ctx is done, and returns
// the serialized envelope. Faulted calls return the internal error
// envelope; the fault itself is available from Fault.
func (c *Call) Wait(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return c.result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Result returns the serialized envelope if the call completed.
func (c *Call) Result() (string, bool) {
	select {
	case <-c.done:
		return c.result, true
	default:
		return "", false
	}
}

// Fault returns the contained engine failure, if any.
func (c *Call) Fault() error {
	select {
	case <-c.done:
		return c.fault
	default:
		return nil
	}
}

// Elapsed returns the time since the call was created.
func (c *Call) Elapsed() time.Duration {
	return time.Since(c.started)
}

func (c *Call) transition(from, to CallState) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

func (c *Call) dispatch() bool {
	return c.transition(StateCreated, StateDispatched)
}

func (c *Call) resolve(result string) bool {
	if !c.transition(StateDispatched, StateResolved) {
		return false
	}

	c.result = result
	close(c.done)

	return true
}

func (c *Call) faulted(fault error, result string) bool {
	if !c.transition(StateDispatched, StateFaulted) {
		return false
	}

	c.fault = fault
	c.result = result
	close(c.done)

	return true
}

func (c *Call) parseFailed() bool {
	return c.transition(StateResolved, StateParseFailed)
}

// responded moves a completed call into its terminal state. It fails
// if the call did not complete yet or was already responded.
func (c *Call) responded() error {
	for {
		state := c.State()
		switch state {
		case StateResolved, StateFaulted, StateParseFailed:
			if c.transition(state, StateResponded) {
				return nil
			}
		case StateResponded:
			return ErrAlreadyResponded
		default:
			return ErrNotResolved
		}
	}
}
