// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import "testing"

func TestEventListInsertRm(t *testing.T) {
	var l eventList
	l.init()

	if !l.isEmpty() {
		t.Fatalf("freshly initialized list is not empty\n")
	}

	e1 := &event{id: 1}
	e2 := &event{id: 2}
	e3 := &event{id: 3}

	l.insert(e1)
	l.insert(e2)
	l.insert(e3)

	var seen []uint64
	l.forEach(func(e *event) { seen = append(seen, e.id) })
	if len(seen) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v\n", len(seen), seen)
	}

	l.rm(e2)
	seen = nil
	l.forEach(func(e *event) { seen = append(seen, e.id) })
	if len(seen) != 2 {
		t.Fatalf("expected 2 entries after rm, got %d: %v\n", len(seen), seen)
	}
	for _, id := range seen {
		if id == 2 {
			t.Fatalf("removed entry 2 still present: %v\n", seen)
		}
	}
	if e2.next != nil || e2.prev != nil {
		t.Fatalf("rm did not detach e2's links\n")
	}

	l.rm(e1)
	l.rm(e3)
	if !l.isEmpty() {
		t.Fatalf("list not empty after removing every entry\n")
	}
}
