// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package periodic

import "testing"

// TestForkSafeDocumentsNoSupport pins down the one fork-related
// guarantee this package makes: that it makes none. Unlike
// periodic.c's pthread_atfork registration, there is no OS-level
// primitive to test here (see fork.go); this only guards against
// ForkSafe silently flipping to true without the package comment
// being revisited.
func TestForkSafeDocumentsNoSupport(t *testing.T) {
	if ForkSafe {
		t.Fatalf("ForkSafe documents the absence of fork support and must stay false\n")
	}
}
