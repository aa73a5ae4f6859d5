// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

// eventList is an intrusive circular doubly-linked list with a
// sentinel head, directly adapted from timer_lst.go's timerLst: same
// insert/rm/isEmpty/forEach shape, with the wheel-number/index
// bookkeeping dropped (this registry has no wheels, see DESIGN.md).
// All operations assume the caller holds the registry lock.
type eventList struct {
	head event // only next/prev are meaningful
}

func (l *eventList) init() {
	l.head.next = &l.head
	l.head.prev = &l.head
}

func (l *eventList) isEmpty() bool {
	return l.head.next == &l.head
}

// insert adds e at the front of the list. e must be detached.
func (l *eventList) insert(e *event) {
	e.prev = &l.head
	e.next = l.head.next
	e.next.prev = e
	l.head.next = e
}

// rm detaches e from whichever list it is currently linked into.
func (l *eventList) rm(e *event) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
}

// forEach calls f for every queued event. f must not remove or insert
// any list entry, e itself included: the walk follows e.next after f
// returns, and rm clears it.
func (l *eventList) forEach(f func(e *event)) {
	for v := l.head.next; v != &l.head; v = v.next {
		f(v)
	}
}
