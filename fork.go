// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

// ForkSafe documents this package's position on fork(2) safety.
//
// periodic.c registers pthread_atfork(prepare, unprepare, unprepare)
// so that a forking process never clones the registry lock in a held
// state: prepare locks event_lock before fork, and both the parent and
// child handlers unlock it immediately after.
//
// Go has no equivalent hook. The runtime does not expose pthread_atfork,
// a goroutine cannot be "the" thread that calls fork, and os/exec's
// fork+exec path runs under syscall.ForkLock, which guards the runtime's
// own file-descriptor bookkeeping, not application locks like
// Scheduler.mu. A bare fork() without an immediate exec() is also not a
// supported way to use the Go runtime: only the calling goroutine
// survives into the child, while every other goroutine - including any
// worker blocked inside acquireNext - simply vanishes, mid-critical-section
// if it happened to hold s.mu or s.poolMu.
//
// Consequently this package makes no attempt to make itself fork-safe;
// ForkSafe is not a function because there is nothing to call. A
// process that forks while a Scheduler is running must not rely on the
// child's copy of that Scheduler in any way: Stop it (or simply do not
// touch it) before forking, and build a fresh Scheduler in the child
// after exec.
const ForkSafe = false
