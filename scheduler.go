// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/hookz"
)

// Scheduler is a periodic event scheduler: an event registry, a pool
// of worker goroutines that dispatch events earliest-deadline-first,
// and an optional timewarp watcher, all sharing one registry lock and
// one pool lock (see DESIGN.md). Use New for an independent instance,
// or Default for a package-wide one (source-compatible with the
// teacher's and periodic.c's single-global-state convention).
type Scheduler struct {
	// registry lock: guards list, nextID and every event reachable
	// from it, and wake.
	mu     sync.Mutex
	list   eventList
	nextID uint64
	wake   chan struct{} // closed+replaced to broadcast, see broadcastLocked

	clock Clock

	// pool lock: guards the fields below. Acquired after mu, never
	// the reverse (spec.md §5's single global lock order).
	poolMu      sync.Mutex
	poolRunning bool
	poolTotal   int
	poolIdle    int
	poolCtx     context.Context
	poolCancel  context.CancelFunc
	poolWG      sync.WaitGroup
	// spawnFailure, when non-nil, is consulted by spawnWorker before
	// every goroutine launch; used by tests to exercise spawnWorker's
	// failure path, which returns the hook's error unchanged.
	spawnFailure func() error

	startFlags StartFlags

	obs *observability

	twMu     sync.Mutex
	twCancel context.CancelFunc
	twDone   chan struct{}

	hooks *hookz.Hooks[TimewarpEvent]
}

// New returns an independent, unstarted Scheduler.
func New() *Scheduler {
	s := &Scheduler{
		clock: newMonoClock(),
		obs:   newObservability(),
		wake:  make(chan struct{}),
		hooks: hookz.New[TimewarpEvent](),
	}
	s.list.init()
	return s
}

// OnTimewarp subscribes handler to every detected wall-clock jump
// (see Timewarp). Grounded on zoobzio-pipz's OnAttempt/OnSuccess
// hookz.Hooks.Hook wrapper methods.
func (s *Scheduler) OnTimewarp(handler func(context.Context, TimewarpEvent) error) error {
	_, err := s.hooks.Hook(HookTimewarp, handler)
	return err
}

// Close releases the Scheduler's observability resources (tracer,
// hooks). Call after Stop; a Scheduler must not be reused after Close.
func (s *Scheduler) Close() error {
	s.hooks.Close()
	s.obs.close()
	return nil
}

var (
	defaultOnce sync.Once
	defaultSced *Scheduler
)

// Default returns a lazily-initialized, package-wide Scheduler, kept
// for source compatibility with code written against a single global
// instance (see DESIGN.md Open Question 4). Most callers should prefer
// New.
func Default() *Scheduler {
	defaultOnce.Do(func() {
		defaultSced = New()
	})
	return defaultSced
}

// WithClock swaps the scheduler's Clock before Start, in the same
// builder-method style zoobzio-pipz's connectors use to inject a
// clockz.Clock for testing (e.g. WithClock(NewClockzClock(clockz.NewFakeClock()))).
func (s *Scheduler) WithClock(c Clock) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
	return s
}

// broadcastLocked wakes every worker blocked in acquireNext. Callers
// must hold s.mu. Mirrors periodic.c's pthread_cond_broadcast: every
// waiter re-evaluates its own choice of "next event" because any
// waiter's decision may have changed (spec.md §5).
func (s *Scheduler) broadcastLocked() {
	close(s.wake)
	s.wake = make(chan struct{})
}

// Add registers a new event. See AddFlags for Delay/Oneshot. interval
// is truncated to whole seconds; an interval of zero is accepted, and
// such an event runs as fast as the pool allows.
func (s *Scheduler) Add(interval time.Duration, flags AddFlags, cb CallbackFunc, arg any) (*Handle, error) {
	if cb == nil {
		return nil, ErrInvalidParameters
	}
	interval = interval.Truncate(time.Second)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := atomic.AddUint64(&s.nextID, 1)
	e := &event{
		id:       id,
		interval: interval,
		oneshot:  flags&Oneshot != 0,
		callback: cb,
		arg:      arg,
		state:    stateQueued,
	}
	if flags&Delay != 0 {
		e.nextDeadline = s.clock.Now() + int64(interval/time.Second)
	}
	s.list.insert(e)
	s.broadcastLocked()

	if DBGon() {
		DBG("Add: interval %s flags 0x%x deadline %d\n", interval, flags, e.nextDeadline)
	}

	return &Handle{ev: e, id: id}, nil
}

// Remove unregisters an event. If the event is currently in-flight
// (detached by a worker, which is either waiting for its deadline or
// running its handler), Remove tombstones it instead:
// the worker will free the record when the callback returns rather
// than re-enqueuing it, so the callback fires at most once more
// (spec.md §4.2, §8). Remove always succeeds once the handle is
// confirmed live; a stale handle (already freed) returns
// ErrInvalidHandle rather than touching freed memory (see DESIGN.md
// "Handle-after-free").
func (s *Scheduler) Remove(h *Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(h)
}

func (s *Scheduler) removeLocked(h *Handle) error {
	e := h.ev
	if e.id != h.id || e.state == stateFreed {
		return ErrInvalidHandle
	}
	if e.state == stateQueued {
		s.list.rm(e)
		e.state = stateFreed
		s.broadcastLocked()
		return nil
	}
	// in-flight: tombstone it (periodic.c's periodic_remove fallback).
	e.oneshot = true
	return nil
}

// RemoveWait is an idiomatic replacement for the teacher's DelWait: it
// removes h, and if the event is currently in-flight, blocks (using
// the same registry wake channel the dispatch loop already broadcasts
// on, not a busy spin like wtimer.go's DelWait) until that dispatch
// completes or ctx is cancelled.
func (s *Scheduler) RemoveWait(ctx context.Context, h *Handle) error {
	tombstonedByUs := false
	for {
		s.mu.Lock()
		e := h.ev
		if e.id != h.id {
			s.mu.Unlock()
			return ErrInvalidHandle
		}
		if e.state == stateFreed {
			s.mu.Unlock()
			if tombstonedByUs {
				// our own tombstone ran to completion: success, not a
				// stale handle.
				return nil
			}
			return ErrInvalidHandle
		}
		if e.state == stateQueued {
			s.list.rm(e)
			e.state = stateFreed
			s.broadcastLocked()
			s.mu.Unlock()
			return nil
		}
		e.oneshot = true
		tombstonedByUs = true
		wakeCh := s.wake
		s.mu.Unlock()

		select {
		case <-wakeCh:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// scanEarliest finds the queued event with the smallest nextDeadline
// (e1/d1) and the next-smallest deadline across the rest (d2),
// per spec.md §4.3 step 2. Caller must hold s.mu. Ties are broken by
// order of appearance, as spec.md explicitly allows.
func (s *Scheduler) scanEarliest() (e1 *event, d1, d2 int64) {
	haveFirst := false
	haveSecond := false
	s.list.forEach(func(e *event) {
		switch {
		case !haveFirst || e.nextDeadline < d1:
			if haveFirst {
				d2 = d1
				haveSecond = true
			}
			e1 = e
			d1 = e.nextDeadline
			haveFirst = true
		case !haveSecond || e.nextDeadline < d2:
			d2 = e.nextDeadline
			haveSecond = true
		}
	})
	if e1 == nil {
		return nil, 0, 0
	}
	if !haveSecond {
		d2 = maxDeadline
	}
	return e1, d1, d2
}

const maxDeadline = int64(1) << 62

var closedTimeCh = func() <-chan time.Time {
	ch := make(chan time.Time)
	close(ch)
	return ch
}()

// acquireNext implements the dispatch loop's selection and timed wait
// (spec.md §4.3 steps 1-6), including the cancellation-safety
// invariant of §4.3/§5: "any exit from the timed wait, including
// cancellation, both releases the registry lock and reattaches the
// currently-held detached event if one exists." The deferred cleanup
// below plays the role of the teacher's pthread_cleanup_push/unlocker
// pair.
func (s *Scheduler) acquireNext(ctx context.Context) (*event, error) {
	s.incIdle()

	var detached *event
	defer func() {
		if detached != nil {
			s.mu.Lock()
			detached.state = stateQueued
			s.list.insert(detached)
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		e1, d1, d2 := s.scanEarliest()
		if e1 == nil {
			wakeCh := s.wake
			s.mu.Unlock()
			select {
			case <-wakeCh:
				continue
			case <-ctx.Done():
				s.decIdle()
				return nil, ctx.Err()
			}
		}

		s.list.rm(e1)
		e1.state = stateInFlight
		detached = e1
		wakeCh := s.wake
		s.mu.Unlock()

		now := s.clock.Now()
		var timerCh <-chan time.Time
		if d1 <= now {
			timerCh = closedTimeCh
		} else {
			timerCh = s.clock.After(time.Duration(d1-now) * time.Second)
		}

		select {
		case <-wakeCh:
			if s.clock.Now() >= d1 {
				break // deadline reached concurrently, fall through to dispatch
			}
			// a new/removed event changed the picture before our
			// deadline: put e1 back and recompute (spec.md §4.3 step 5).
			detached = nil
			s.mu.Lock()
			e1.state = stateQueued
			s.list.insert(e1)
			s.mu.Unlock()
			continue
		case <-timerCh:
			if s.clock.Now() < d1 {
				// clock jitter: not actually due yet.
				detached = nil
				s.mu.Lock()
				e1.state = stateQueued
				s.list.insert(e1)
				s.mu.Unlock()
				continue
			}
		case <-ctx.Done():
			s.decIdle()
			return nil, ctx.Err()
		}

		// e1's deadline has genuinely been reached: dispatch it.
		detached = nil
		s.decIdle()
		s.maybeGrow(e1, d1, d2)
		if DBGon() {
			total, idle := s.poolCounts()
			DBG("dispatch: interval %s deadline %d workers %d idle %d\n",
				e1.interval, d1, total, idle)
		}
		return e1, nil
	}
}

// runEvent executes e outside any lock (spec.md §4.3 step 7), then
// re-enqueues it (or frees it, if oneshot / tombstoned) under the
// registry lock (step 8).
func (s *Scheduler) runEvent(ctx context.Context, e *event) {
	ctx, span := s.obs.tracer.StartSpan(ctx, SpanDispatch)
	span.SetTag(TagInterval, e.interval.String())
	if e.oneshot {
		span.SetTag(TagOneshot, "true")
	}
	defer span.Finish()

	start := s.clock.Now()
	e.lastStart = start
	s.obs.metrics.Counter(MetricDispatchesTotal).Inc()

	e.callback(ctx, e.arg)

	s.mu.Lock()
	if e.oneshot {
		e.state = stateFreed
	} else {
		done := s.clock.Now()
		e.elapsedTotal += time.Duration(done-start) * time.Second
		e.runCount++
		e.nextDeadline = done + int64(e.interval/time.Second)
		e.state = stateQueued
		s.list.insert(e)
	}
	s.broadcastLocked()
	s.mu.Unlock()
}

// workerLoop is one worker's run loop: acquire the next due event,
// run it, repeat, until ctx is cancelled.
func (s *Scheduler) workerLoop(ctx context.Context) {
	defer s.poolWG.Done()
	for {
		e, err := s.acquireNext(ctx)
		if err != nil {
			return
		}
		s.runEvent(ctx, e)
	}
}
