package subscriber

import "errors"

// ErrSinkClosed is returned by Send once a sink has finished.
var ErrSinkClosed = errors.New("sink closed")

// Sink is one live client connection attached to a registry. Implementations
// must make Send safe for concurrent use, make Close idempotent, and fire the
// finish hooks exactly once, whichever of client disconnect, send failure,
// Close, or session timeout comes first.
type Sink interface {
	// Send pushes one wire frame to the client.
	Send(frame []byte) error
	// Close finishes the sink.
	Close()
	// OnFinished registers fn to run when the sink finishes. A hook added
	// after the sink already finished runs immediately.
	OnFinished(fn func())
}

// finisher carries the shared finish-hook bookkeeping of the concrete sinks.
type finisher struct {
	done  chan struct{}
	hooks []func()
}

func newFinisher() finisher {
	return finisher{done: make(chan struct{})}
}

// finished reports whether finish ran. Callers must hold the owning sink's
// mutex.
func (f *finisher) finished() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// finish closes the done channel and runs the hooks once. Callers must hold
// the owning sink's mutex; hooks run outside of it via the returned slice.
func (f *finisher) finish() []func() {
	if f.finished() {
		return nil
	}
	close(f.done)
	hooks := f.hooks
	f.hooks = nil
	return hooks
}

// addHook queues fn, or reports false when the sink already finished and fn
// must run immediately. Callers must hold the owning sink's mutex.
func (f *finisher) addHook(fn func()) bool {
	if f.finished() {
		return false
	}
	f.hooks = append(f.hooks, fn)
	return true
}
