// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import "time"

// StartFlags controls Start's behavior.
type StartFlags uint8

const (
	// Debug latches the package Log level to slog.LDBG at Start. Stop
	// does not restore the previous level.
	Debug StartFlags = 1 << iota
	// NoReturn makes Start itself run as worker 0 instead of spawning
	// a goroutine for it; Start then blocks until Stop cancels the
	// pool, mirroring periodic_start()'s PERIODIC_NORETURN (the
	// calling thread becomes the first worker rather than returning
	// to the caller).
	NoReturn
)

// StopFlags controls Stop's behavior.
type StopFlags uint8

const (
	// Wait makes Stop block until every worker goroutine has returned,
	// instead of only signalling cancellation.
	Wait StopFlags = 1 << iota
)

// incIdle/decIdle track the pool-lock-guarded idle count spec.md §4.3
// steps 1/6 describe, mirroring periodic.c's idle_threads++/--
// around dequeue()'s selection loop.
func (s *Scheduler) incIdle() {
	s.poolMu.Lock()
	s.poolIdle++
	s.obs.metrics.Gauge(MetricPoolIdle).Set(float64(s.poolIdle))
	s.poolMu.Unlock()
}

func (s *Scheduler) decIdle() {
	s.poolMu.Lock()
	s.poolIdle--
	s.obs.metrics.Gauge(MetricPoolIdle).Set(float64(s.poolIdle))
	s.poolMu.Unlock()
}

func (s *Scheduler) poolCounts() (total, idle int) {
	s.poolMu.Lock()
	total, idle = s.poolTotal, s.poolIdle
	s.poolMu.Unlock()
	return
}

// maybeGrow implements spec.md §4.3 step 6's growth heuristic: if no
// worker is idle, e1 has completed at least one run (so its average
// duration is meaningful), and the next-earliest deadline d2 would
// arrive before this dispatch is expected to finish, spawn one more
// worker. The pool never shrinks (spec.md §4.4), mirroring
// periodic.c's make_new_thread call site in dequeue().
func (s *Scheduler) maybeGrow(e1 *event, d1, d2 int64) {
	s.poolMu.Lock()
	idle := s.poolIdle
	s.poolMu.Unlock()
	if idle != 0 || e1.runCount == 0 {
		return
	}
	expectedFinish := d1 + int64(e1.avgDuration()/time.Second)
	if d2 >= expectedFinish {
		return
	}
	if err := s.spawnWorker(); err != nil {
		WARN("pool growth failed: %s\n", err)
	}
}

// spawnWorker launches one more worker goroutine bound to the pool's
// current run context. Grounded on wtimer_run.go's wg.Add/go pattern
// in startRQ.
func (s *Scheduler) spawnWorker() error {
	s.poolMu.Lock()
	if !s.poolRunning {
		s.poolMu.Unlock()
		return ErrNotRunning
	}
	if s.spawnFailure != nil {
		if err := s.spawnFailure(); err != nil {
			s.poolMu.Unlock()
			return err
		}
	}
	ctx := s.poolCtx
	s.poolWG.Add(1)
	s.poolTotal++
	s.obs.metrics.Gauge(MetricPoolWorkers).Set(float64(s.poolTotal))
	s.obs.metrics.Counter(MetricPoolGrowthsTotal).Inc()
	s.poolMu.Unlock()

	go s.workerLoop(ctx)
	return nil
}
