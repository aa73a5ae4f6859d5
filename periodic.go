// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"context"

	"github.com/intuitivelabs/slog"
)

// Start launches the worker pool: one worker goroutine, or, under
// NoReturn, turns the calling goroutine itself into worker 0 and
// blocks until Stop. Calling Start twice without an intervening Stop
// returns ErrBusy (spec.md §4.4), matching periodic_start()'s
// "already running" check.
func (s *Scheduler) Start(flags StartFlags) error {
	s.poolMu.Lock()
	if s.poolRunning {
		s.poolMu.Unlock()
		return ErrBusy
	}
	if flags&Debug != 0 {
		setDebugLevel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.poolRunning = true
	s.poolCtx = ctx
	s.poolCancel = cancel
	s.poolTotal = 1
	s.obs.metrics.Gauge(MetricPoolWorkers).Set(1)
	s.startFlags = flags
	s.poolWG.Add(1)
	s.poolMu.Unlock()

	if flags&NoReturn != 0 {
		s.workerLoop(ctx)
		return nil
	}
	go s.workerLoop(ctx)
	return nil
}

// Stop cancels every worker's context; under Wait, it blocks until
// every worker (and the timewarp watcher, if running) has returned.
// Stop on a Scheduler that was never started returns ErrNotRunning
// (spec.md §4.4). Events already registered remain in the registry, so
// a subsequent Start resumes dispatching them (spec.md §9's Open
// Question; see DESIGN.md decision 3).
func (s *Scheduler) Stop(flags StopFlags) error {
	s.poolMu.Lock()
	if !s.poolRunning {
		s.poolMu.Unlock()
		return ErrNotRunning
	}
	cancel := s.poolCancel
	s.poolRunning = false
	s.poolMu.Unlock()

	s.stopTimewarpLocked()
	cancel()

	if flags&Wait != 0 {
		s.poolWG.Wait()
		s.poolMu.Lock()
		s.poolTotal = 0
		s.poolIdle = 0
		s.poolMu.Unlock()
		s.obs.metrics.Gauge(MetricPoolWorkers).Set(0)
		s.obs.metrics.Gauge(MetricPoolIdle).Set(0)
	}
	return nil
}

func setDebugLevel() {
	slog.SetLevel(&Log, slog.LDBG)
}
