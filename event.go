// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"context"
	"time"
)

// CallbackFunc is invoked when an event fires. It is called outside
// any scheduler lock and may call Add/Remove on the same Scheduler
// (the scheduler is reentrant under its own locks). It must not free
// or otherwise invalidate its own Handle's backing storage.
type CallbackFunc func(ctx context.Context, arg any)

// TimewarpFunc is invoked once per detected wall-clock jump, before
// the scheduler rebases its deadlines.
type TimewarpFunc func(arg any)

// AddFlags controls Add's behavior.
type AddFlags uint8

const (
	// Delay makes the first firing occur after interval has elapsed,
	// instead of immediately.
	Delay AddFlags = 1 << iota
	// Oneshot makes the event fire once and then free itself.
	Oneshot
)

// state is the three-way lifecycle spec.md's event-record invariant 1
// requires: an event is queued (reachable from the registry), in-flight
// (detached, owned by exactly one worker), or freed. Unlike the
// teacher's tinfo (an atomically-accessed flags word, needed because
// wtimer's wheel/runq sharding lets several locks touch a record in
// parallel), the state field is read and written only under the
// registry lock (spec.md invariant 2), so a plain enum suffices.
type state uint8

const (
	stateQueued state = iota
	stateInFlight
	stateFreed
)

// event is the internal record for a single registration. Exclusively
// owned by the registry while stateQueued, by exactly one worker while
// stateInFlight, per spec.md invariant 1.
type event struct {
	// link: intrusive circular doubly-linked list node, adapted from
	// timer_lst.go's TimerLnk next/prev pair (wheel/idx bookkeeping
	// dropped, see DESIGN.md).
	next, prev *event

	id    uint64 // generation stamp, see Handle and DESIGN.md
	state state

	interval     time.Duration // whole seconds; truncated on Add
	nextDeadline int64         // seconds; 0 means "fire immediately"
	lastStart    int64         // seconds; 0 if never run
	elapsedTotal time.Duration
	runCount     uint64

	oneshot bool // also used as the in-flight tombstone, spec.md §4.2

	callback CallbackFunc
	arg      any
}

// avgDuration returns the running average execution duration, or 0 if
// the event has never completed a run (spec.md §3).
func (e *event) avgDuration() time.Duration {
	if e.runCount == 0 {
		return 0
	}
	return e.elapsedTotal / time.Duration(e.runCount)
}

// Handle is an opaque reference to a registered event, returned by
// Add. It remains valid for Remove/RemoveWait even after the event
// has been freed: the record stays reachable through the handle and
// is marked freed, which lets those calls detect a stale handle
// instead of acting on a retired record (spec.md §9's Open
// Question; see DESIGN.md "Handle-after-free").
type Handle struct {
	ev *event
	id uint64
}
