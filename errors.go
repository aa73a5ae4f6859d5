// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"errors"
)

// ErrOutOfMemory is kept for API parity with the periodic.h
// errno=ENOMEM convention this library is modeled on. No function in
// this package returns it: the test hook Scheduler.spawnFailure makes
// spawnWorker fail with whatever error the hook supplies.
var ErrOutOfMemory = errors.New("periodic: out of memory")

// ErrBusy is returned by Start when the scheduler is already running.
var ErrBusy = errors.New("periodic: already running")

// ErrNotRunning is returned by Stop when the scheduler is not running.
var ErrNotRunning = errors.New("periodic: not running")

// ErrSystemError stands for a failure of an underlying runtime
// primitive. No function in this package returns it.
var ErrSystemError = errors.New("periodic: system error")

// ErrInvalidHandle is returned by Remove/RemoveWait when the handle's
// event record was already freed (removed, or a oneshot/tombstoned
// event that completed) and the handle is stale, or when the handle's
// generation stamp does not match its record. See DESIGN.md
// "Handle-after-free".
var ErrInvalidHandle = errors.New("periodic: invalid or stale handle")

// ErrInvalidParameters is returned when Add is called with a nil
// callback, and when Timewarp is called with a non-positive interval.
var ErrInvalidParameters = errors.New("periodic: invalid parameters")
