// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"errors"
	"testing"
	"time"
)

func TestSpawnWorkerBeforeStartReturnsNotRunning(t *testing.T) {
	s := New()
	if err := s.spawnWorker(); err != ErrNotRunning {
		t.Fatalf("expected ErrNotRunning, got %v\n", err)
	}
}

func TestSpawnFailureDoesNotGrowThePool(t *testing.T) {
	s := New()
	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %s\n", err)
	}
	defer s.Stop(Wait)

	injected := errors.New("injected spawn failure")
	s.spawnFailure = func() error { return injected }

	before, _ := s.poolCounts()
	if err := s.spawnWorker(); err != injected {
		t.Fatalf("expected the injected error, got %v\n", err)
	}
	after, _ := s.poolCounts()
	if after != before {
		t.Fatalf("pool grew despite a failed spawn: before=%d after=%d\n", before, after)
	}
}

// TestMaybeGrowSpawnsWorkerWhenOverlapping drives maybeGrow's arithmetic
// directly (spec.md §4.3 step 6) rather than racing real dispatch
// timing: no idle worker, e1 has a nonzero running average, and the
// next-earliest deadline arrives before e1's dispatch is expected to
// finish.
func TestMaybeGrowSpawnsWorkerWhenOverlapping(t *testing.T) {
	s := New()
	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %s\n", err)
	}
	defer s.Stop(Wait)

	time.Sleep(10 * time.Millisecond)
	s.poolMu.Lock()
	s.poolIdle = 0
	s.poolMu.Unlock()

	e := &event{
		runCount:     3,
		elapsedTotal: 9 * time.Second, // avgDuration == 3s
		interval:     time.Second,
	}
	d1 := int64(100)
	d2 := int64(101) // expectedFinish = 100+3 = 103; d2 < 103

	before, _ := s.poolCounts()
	s.maybeGrow(e, d1, d2)
	time.Sleep(10 * time.Millisecond)
	after, _ := s.poolCounts()

	if after <= before {
		t.Fatalf("pool did not grow: before=%d after=%d\n", before, after)
	}
}

func TestMaybeGrowSkipsFirstRun(t *testing.T) {
	s := New()
	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %s\n", err)
	}
	defer s.Stop(Wait)

	time.Sleep(10 * time.Millisecond)
	s.poolMu.Lock()
	s.poolIdle = 0
	s.poolMu.Unlock()

	e := &event{runCount: 0, interval: time.Second}
	before, _ := s.poolCounts()
	s.maybeGrow(e, 100, 100) // no history yet: avgDuration is undefined, must not grow
	time.Sleep(10 * time.Millisecond)
	after, _ := s.poolCounts()

	if after != before {
		t.Fatalf("pool grew on an event's first run: before=%d after=%d\n", before, after)
	}
}

func TestMaybeGrowSkipsWhenWorkersAreIdle(t *testing.T) {
	s := New()
	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %s\n", err)
	}
	defer s.Stop(Wait)

	time.Sleep(10 * time.Millisecond) // the lone worker settles into idle

	e := &event{runCount: 5, elapsedTotal: 5 * time.Second, interval: time.Second}
	before, _ := s.poolCounts()
	s.maybeGrow(e, 100, 100)
	time.Sleep(10 * time.Millisecond)
	after, _ := s.poolCounts()

	if after != before {
		t.Fatalf("pool grew while a worker was idle: before=%d after=%d\n", before, after)
	}
}
