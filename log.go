// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import (
	"github.com/intuitivelabs/slog"
)

// Log is the package-wide diagnostic sink, in the same style as the
// teacher's package-level logging. Lower its level to see scheduler
// trace lines, e.g. slog.SetLevel(&Log, slog.LDBG). The DEBUG start
// flag latches Log's level to LDBG once, at Start (spec.md §4.7).
var Log slog.Log

func init() {
	Log.Init(NAME)
	slog.SetLevel(&Log, slog.LWARN)
}

// DBGon reports whether debug-level trace lines are enabled.
func DBGon() bool { return Log.DBGon() }

// ERRon reports whether error-level trace lines are enabled.
func ERRon() bool { return Log.ERRon() }

// WARNon reports whether warning-level trace lines are enabled.
func WARNon() bool { return Log.WARNon() }

// DBG emits a debug trace line describing a scheduler decision (which
// event was selected, current worker/idle counts, growth rationale).
// Content is advisory only; no testable property depends on it.
func DBG(f string, v ...interface{}) { Log.DBG(f, v...) }

// ERR emits an error trace line.
func ERR(f string, v ...interface{}) { Log.ERR(f, v...) }

// WARN emits a warning trace line.
func WARN(f string, v ...interface{}) { Log.WARN(f, v...) }

// BUG reports an internal invariant violation. Unlike PANIC, it does
// not abort the process: some call sites (e.g. redistribution races)
// can in principle recover.
func BUG(f string, v ...interface{}) { Log.BUG(f, v...) }

// PANIC reports an unrecoverable internal invariant violation and
// aborts, mirroring the teacher's PANIC() usage for "should never
// happen" branches (e.g. a detached list head, a double-free).
func PANIC(f string, v ...interface{}) { Log.PANIC(f, v...) }
