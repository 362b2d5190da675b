// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import "testing"

func TestFlowWindowDebitCredit(t *testing.T) {
	w := newFlowWindow(100)
	w.debit(40)
	if got := w.available(); got != 60 {
		t.Fatalf("available() = %d, want 60", got)
	}
	if err := w.credit(10); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := w.available(); got != 70 {
		t.Fatalf("available() = %d, want 70", got)
	}
}

func TestFlowWindowGoesNegativeButClampsAvailable(t *testing.T) {
	w := newFlowWindow(10)
	w.debit(30)
	if got := w.available(); got != 0 {
		t.Fatalf("available() = %d, want 0 for a negative window", got)
	}
	if err := w.credit(40); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if got := w.available(); got != 20 {
		t.Fatalf("available() = %d, want 20", got)
	}
}

func TestFlowWindowCreditZeroIsError(t *testing.T) {
	w := newFlowWindow(10)
	if err := w.credit(0); err != errZeroIncrement {
		t.Fatalf("credit(0) = %v, want errZeroIncrement", err)
	}
}

func TestFlowWindowCreditOverflow(t *testing.T) {
	w := newFlowWindow(maxWindowSize)
	if err := w.credit(1); err != errWindowOverflow {
		t.Fatalf("credit overflow = %v, want errWindowOverflow", err)
	}
}

func TestFlowWindowAdjustInitialDelta(t *testing.T) {
	w := newFlowWindow(1000)
	if err := w.adjustInitial(-500); err != nil {
		t.Fatalf("adjustInitial: %v", err)
	}
	if got := w.available(); got != 500 {
		t.Fatalf("available() = %d, want 500", got)
	}
	if err := w.adjustInitial(-600); err != nil {
		t.Fatalf("adjustInitial: %v", err)
	}
	if w.size != -100 {
		t.Fatalf("size = %d, want -100", w.size)
	}
}

func TestFlowWindowAdjustInitialOverflow(t *testing.T) {
	w := newFlowWindow(0)
	if err := w.adjustInitial(int64(maxWindowSize) + 1); err != errWindowOverflow {
		t.Fatalf("adjustInitial overflow = %v, want errWindowOverflow", err)
	}
}
