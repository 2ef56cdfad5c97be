// Package runstate implements the C7 {running, cancelled} state shared
// across a task worker pool, polled between units for cooperative
// cancellation.
package runstate

import "sync/atomic"

// RunState tracks whether an operation is running and whether cancellation
// has been requested. All methods are safe for concurrent use.
type RunState struct {
	running   atomic.Bool
	cancelled atomic.Bool
}

// New returns a RunState in its initial (not running, not cancelled) state.
func New() *RunState { return &RunState{} }

// Start transitions to (running=true, cancelled=false).
func (s *RunState) Start() {
	s.cancelled.Store(false)
	s.running.Store(true)
}

// Stop transitions to running=false, leaving cancelled untouched.
func (s *RunState) Stop() {
	s.running.Store(false)
}

// RequestCancel sets cancelled=true; tasks observe it on their next poll.
func (s *RunState) RequestCancel() {
	s.cancelled.Store(true)
}

func (s *RunState) IsRunning() bool   { return s.running.Load() }
func (s *RunState) IsCancelled() bool { return s.cancelled.Load() }
