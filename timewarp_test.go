// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestTimewarpRejectsNonPositiveInterval(t *testing.T) {
	s := New()
	if err := s.Timewarp(0, 0, nil, nil); err != ErrInvalidParameters {
		t.Fatalf("expected ErrInvalidParameters, got %v\n", err)
	}
}

func TestTimewarpRebasesDeadlinesAndInvokesCallback(t *testing.T) {
	fake := clockz.NewFakeClock()
	s := New().WithClock(NewClockzClock(fake))

	h, err := s.Add(time.Second, Delay, func(ctx context.Context, arg any) {}, nil)
	if err != nil {
		t.Fatalf("Add: %s\n", err)
	}
	// Seed pre-warp running averages so the reset below is observable.
	s.mu.Lock()
	h.ev.lastStart = 1
	h.ev.elapsedTotal = 7 * time.Second
	h.ev.runCount = 4
	s.mu.Unlock()

	called := make(chan struct{}, 1)
	if err := s.Timewarp(time.Second, 0, func(arg any) {
		called <- struct{}{}
	}, nil); err != nil {
		t.Fatalf("Timewarp: %s\n", err)
	}
	defer s.stopTimewarpLocked()

	fake.Advance(5 * time.Second)
	fake.BlockUntilReady()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("timewarp callback never fired\n")
	}

	time.Sleep(20 * time.Millisecond)
	s.mu.Lock()
	deadline, lastStart, elapsedTotal, runCount := h.ev.nextDeadline, h.ev.lastStart, h.ev.elapsedTotal, h.ev.runCount
	s.mu.Unlock()
	if deadline != 6 {
		t.Fatalf("deadline not rebased to now+interval: got %d, want 6\n", deadline)
	}
	if lastStart != 0 || elapsedTotal != 0 || runCount != 0 {
		t.Fatalf("rebase did not reset running averages: lastStart=%d elapsedTotal=%s runCount=%d\n",
			lastStart, elapsedTotal, runCount)
	}
}

func TestTimewarpEmitsHookEvent(t *testing.T) {
	fake := clockz.NewFakeClock()
	s := New().WithClock(NewClockzClock(fake))
	defer s.Close()

	events := make(chan TimewarpEvent, 1)
	if err := s.OnTimewarp(func(ctx context.Context, ev TimewarpEvent) error {
		events <- ev
		return nil
	}); err != nil {
		t.Fatalf("OnTimewarp: %s\n", err)
	}

	if err := s.Timewarp(time.Second, 0, nil, nil); err != nil {
		t.Fatalf("Timewarp: %s\n", err)
	}
	defer s.stopTimewarpLocked()

	fake.Advance(3 * time.Second)
	fake.BlockUntilReady()

	select {
	case ev := <-events:
		if ev.Delta == 0 {
			t.Fatalf("expected a nonzero delta, got %+v\n", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("hook event never emitted\n")
	}
}

func TestStopStopsTheTimewarpWatcher(t *testing.T) {
	s := New()
	if err := s.Timewarp(time.Second, 0, nil, nil); err != nil {
		t.Fatalf("Timewarp: %s\n", err)
	}
	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %s\n", err)
	}
	if err := s.Stop(Wait); err != nil {
		t.Fatalf("Stop: %s\n", err)
	}

	s.twMu.Lock()
	running := s.twCancel != nil
	s.twMu.Unlock()
	if running {
		t.Fatalf("timewarp watcher still marked running after Stop\n")
	}
}
