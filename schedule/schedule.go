package schedule

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"sync"
	"time"
)

// TaskScheduler coalesces repeated "something changed" signals into at
// most one execution of a bound action per quiescence window. It
// additionally supports a forced synchronous run and an earliest-possible
// deferred run.
//
// The action never runs concurrently with itself; all executions are
// serialized on an internal mutex. A Run received while a deferred
// execution is already pending does not schedule a second one.
type TaskScheduler struct {
	mu      sync.Mutex
	action  func()
	delay   time.Duration
	timer   *time.Timer
	pending bool
	running bool
	rearm   bool
	stopped bool
}

// New binds an action to a fresh scheduler. The delay is the quiescence
// window for Run; zero is allowed and yields next-tick execution.
func New(action func(), delay time.Duration) *TaskScheduler {
	return &TaskScheduler{action: action, delay: delay}
}

// Run requests a coalesced execution of the action after the quiescence
// window. Calls arriving while an execution is already pending are
// absorbed. A re-entrant Run from within the action re-arms the
// scheduler for a subsequent tick instead of recursing.
func (s *TaskScheduler) Run() {
	s.schedule(s.delay)
}

// RunAsap schedules the action at the earliest opportunity, ahead of
// ordinary quiescence waits. Used to guarantee an invalidation happens
// before the next read, not merely eventually.
func (s *TaskScheduler) RunAsap() {
	s.schedule(0)
}

// RunImmediately flushes a pending deferred execution: the pending
// timer is cancelled and the action runs synchronously now. On an idle
// scheduler — nothing pending, nothing executing — it is a no-op, so
// callers can use it as a catch-up barrier without forcing redundant
// runs.
func (s *TaskScheduler) RunImmediately() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.running {
		// already executing on another goroutine; that execution counts
		s.mu.Unlock()
		return
	}
	if !s.pending {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()
	s.running = true
	s.mu.Unlock()

	s.action()

	s.mu.Lock()
	s.running = false
	if s.rearm && !s.stopped {
		s.rearm = false
		s.pending = true
		s.timer = time.AfterFunc(s.delay, s.fire)
	}
	s.mu.Unlock()
}

// Stop cancels pending work. A stopped scheduler runs nothing, ever.
func (s *TaskScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelLocked()
}

func (s *TaskScheduler) schedule(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.running {
		s.rearm = true
		return
	}
	if s.pending {
		return
	}
	s.pending = true
	s.timer = time.AfterFunc(d, s.fire)
}

func (s *TaskScheduler) fire() {
	s.mu.Lock()
	if s.stopped || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.running = true
	s.mu.Unlock()

	s.action()

	s.mu.Lock()
	s.running = false
	if s.rearm && !s.stopped {
		s.rearm = false
		s.pending = true
		s.timer = time.AfterFunc(s.delay, s.fire)
	}
	s.mu.Unlock()
}

func (s *TaskScheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
}
