// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"context"
	"time"

	"github.com/zoobzio/hookz"
)

// TimewarpEvent is the value hookz subscribers receive when the
// watcher detects a wall-clock jump (see Scheduler.OnTimewarp).
type TimewarpEvent struct {
	// Detected is the scheduler Clock's monotonic Now() reading, in
	// seconds, taken right after the jump was detected.
	Detected int64
	// Delta is how far the clock moved relative to interval, in
	// seconds; positive for a forward jump, negative for backward.
	Delta int64
}

// HookTimewarp is the key TimewarpEvent values are published under.
const HookTimewarp = hookz.Key("periodic.timewarp")

// Timewarp starts (or, if already running, replaces) a background
// watcher that samples the clock every interval and, if the elapsed
// time deviates from interval by more than warptime in either
// direction, invokes cb, emits a HookTimewarp event, and rebases every
// registered event's next deadline as if it had just restarted
// counting down from now (spec.md §4.5). Grounded on
// periodic.c's timewarp_thread/periodic_timewarp almost line for
// line; hookz.Hooks[T] is an additive Go-idiomatic observation point
// the original lacks (see DESIGN.md).
func (s *Scheduler) Timewarp(interval, warptime time.Duration, cb TimewarpFunc, arg any) error {
	if interval <= 0 {
		return ErrInvalidParameters
	}

	s.twMu.Lock()
	defer s.twMu.Unlock()
	s.stopTimewarpLockedLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.twCancel = cancel
	done := make(chan struct{})
	s.twDone = done

	go s.timewarpLoop(ctx, done, interval, warptime, cb, arg)
	return nil
}

func (s *Scheduler) timewarpLoop(ctx context.Context, done chan struct{}, interval, warptime time.Duration, cb TimewarpFunc, arg any) {
	defer close(done)

	// Detection sleeps on the monotonic source (After) but measures
	// elapsed wall-clock time (WallNow): an NTP step or an admin
	// setting the clock moves the wall reading without moving the
	// monotonic one, which is exactly the jump this watcher exists to
	// catch (spec.md §4.5). The rebase below still uses the
	// scheduler's own monotonic Now(), so deadlines stay on the same
	// time base the dispatch loop uses.
	wallBefore := s.clock.WallNow()
	intervalSecs := int64(interval / time.Second)
	warpSecs := int64(warptime / time.Second)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
		}

		wallAfter := s.clock.WallNow()
		delta := int64(wallAfter.Sub(wallBefore)/time.Second) - intervalSecs
		if delta > warpSecs || delta < -warpSecs {
			if cb != nil {
				cb(arg)
			}
			s.obs.metrics.Counter(MetricTimewarpsTotal).Inc()
			now := s.clock.Now()
			s.rebaseDeadlines(now)
			_ = s.hooks.Emit(ctx, HookTimewarp, TimewarpEvent{Detected: now, Delta: delta}) //nolint:errcheck

			// cb/Emit may have taken a while; re-sample so the next
			// interval's baseline reflects reality rather than the
			// pre-callback instant (periodic.c's timewarp_thread does
			// the same with last_time).
			wallAfter = s.clock.WallNow()
		}
		wallBefore = wallAfter
	}
}

// rebaseDeadlines recalculates every queued event's next deadline as
// now+interval, zeroes its lastStart/elapsedTotal/runCount so the
// pool-growth heuristic's average-duration math isn't skewed by
// pre-warp timings, and wakes every worker. Matches periodic.c's
// timewarp_thread recalibration loop plus spec.md §4.5's explicit
// reset of the running averages.
func (s *Scheduler) rebaseDeadlines(now int64) {
	s.mu.Lock()
	s.list.forEach(func(e *event) {
		e.nextDeadline = now + int64(e.interval/time.Second)
		e.lastStart = 0
		e.elapsedTotal = 0
		e.runCount = 0
	})
	s.broadcastLocked()
	s.mu.Unlock()
}

// stopTimewarpLocked stops any running watcher and waits for it to
// exit. Called from Stop, without twMu held.
func (s *Scheduler) stopTimewarpLocked() {
	s.twMu.Lock()
	defer s.twMu.Unlock()
	s.stopTimewarpLockedLocked()
}

// stopTimewarpLockedLocked requires twMu already held.
func (s *Scheduler) stopTimewarpLockedLocked() {
	if s.twCancel == nil {
		return
	}
	s.twCancel()
	<-s.twDone
	s.twCancel = nil
	s.twDone = nil
}
