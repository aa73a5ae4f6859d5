// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"time"

	"github.com/intuitivelabs/timestamp"
	"github.com/zoobzio/clockz"
)

// Clock exposes the operations the scheduler needs: a monotonic "now"
// used for every deadline and wait timeout, as whole seconds since
// some internal, implementation-defined reference instant (Deadlines
// and wait timeouts are only ever compared against values produced by
// the same Clock, so the choice of reference instant is never
// observable outside the package), and a separate wall-clock reading
// used only by the timewarp watcher to detect jumps an admin/NTP step
// makes to the system clock but that a monotonic source never sees
// (spec.md §4.5).
type Clock interface {
	// Now returns the current monotonic time in whole seconds.
	Now() int64
	// After returns a channel that fires once d has elapsed, measured
	// against the monotonic source, not the wall clock.
	After(d time.Duration) <-chan time.Time
	// WallNow returns the current wall-clock reading. Unlike Now, two
	// calls to WallNow are not guaranteed to be monotonically ordered:
	// that is exactly the property the timewarp watcher is built to
	// detect.
	WallNow() time.Time
}

// monoClock is the production Clock, backed by intuitivelabs/timestamp's
// monotonic source (falling back to wall-clock time if the host has no
// monotonic clock, exactly as timestamp.Now() itself does).
type monoClock struct {
	ref timestamp.TS
}

func newMonoClock() *monoClock {
	return &monoClock{ref: timestamp.Now()}
}

func (c *monoClock) Now() int64 {
	return int64(timestamp.Now().Sub(c.ref) / time.Second)
}

func (c *monoClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// WallNow reads the system wall clock directly, deliberately bypassing
// timestamp's monotonic source: an NTP step or an admin running `date`
// moves this reading but never moves Now(). The monotonic reading
// time.Now() carries is stripped, so that Sub between two WallNow values
// measures wall-clock time rather than monotonic time.
func (c *monoClock) WallNow() time.Time {
	return time.Now().Round(0)
}

// clockzClock adapts a github.com/zoobzio/clockz.Clock (as used for
// time injection by the zoobzio-pipz connectors) to the Clock
// interface above. It exists so tests can swap in clockz.NewFakeClock()
// and drive the scheduler's timed waits and the timewarp watcher
// deterministically via Advance()/BlockUntilReady(), instead of
// sleeping on the real wall clock the way the teacher's own tests do.
type clockzClock struct {
	clock clockz.Clock
	ref   time.Time
}

// NewClockzClock wraps an existing clockz.Clock. Pass clockz.RealClock
// for production use (equivalent to newMonoClock, but clockz-sourced),
// or a clockz.NewFakeClock() for deterministic tests.
func NewClockzClock(clock clockz.Clock) Clock {
	return &clockzClock{clock: clock, ref: clock.Now()}
}

func (c *clockzClock) Now() int64 {
	return int64(c.clock.Now().Sub(c.ref) / time.Second)
}

func (c *clockzClock) After(d time.Duration) <-chan time.Time {
	return c.clock.After(d)
}

// WallNow returns the same clockz.Clock reading Now() is built from:
// clockz.NewFakeClock() models a single simulated instant with no
// separate monotonic/wall split, so advancing it with Advance() is
// exactly how tests simulate a wall-clock jump (see timewarp_test.go).
// Any monotonic reading is stripped, as in monoClock.WallNow.
func (c *clockzClock) WallNow() time.Time {
	return c.clock.Now().Round(0)
}
