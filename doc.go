// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package periodic implements a lightweight periodic event scheduler:
// user callbacks are registered with a whole-second interval and run
// repeatedly on a pool of worker goroutines owned by the scheduler,
// earliest deadline first.
//
// It targets long-running daemons that need periodic work (heartbeats,
// timeouts, cache sweeps) without pulling in a full event-loop
// framework. Sub-second resolution, absolute-wall-clock cron
// expressions, persistent schedules, priority beyond earliest-deadline
// and cross-process coordination are explicitly out of scope.
//
// A Scheduler must not be used across a fork() in a cgo-embedded
// process without external synchronization: see the doc comment on
// ForkSafe for why there is no Go equivalent of pthread_atfork.
package periodic

const NAME = "periodic"
