// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

// flowWindow is a signed 32-bit flow-control window, RFC 7540 section 6.9.
// Grounded on the teacher's c.inWindow/c.outWindow int32 fields
// (hexinfra-gorox hemi/web_proto_http2.go); given their own type here since
// both a connection and every stream carry one in each direction, and the
// overflow/underflow rules are identical at both scopes.
type flowWindow struct {
	size int32
}

func newFlowWindow(initial uint32) flowWindow {
	return flowWindow{size: int32(initial)}
}

// debit subtracts n octets sent or received. The caller is responsible for
// never calling debit with more than the window currently allows; h2wire's
// writer scheduler enforces that by construction (it never schedules more
// than the current budget), so debit itself only asserts via a negative
// result rather than erroring.
func (w *flowWindow) debit(n uint32) {
	w.size -= int32(n)
}

// credit applies a WINDOW_UPDATE increment. RFC 7540 section 6.9.1: the
// increment must be positive, and a window must never be allowed to exceed
// 2^31-1. A zero increment returns errZeroIncrement (PROTOCOL_ERROR) and an
// overflow returns errWindowOverflow (FLOW_CONTROL_ERROR); the caller
// decides the scope.
func (w *flowWindow) credit(increment uint32) error {
	if increment == 0 {
		return errZeroIncrement
	}
	sum := int64(w.size) + int64(increment)
	if sum > maxWindowSize {
		return errWindowOverflow
	}
	w.size = int32(sum)
	return nil
}

// adjustInitial applies the delta from a SETTINGS INITIAL_WINDOW_SIZE
// change to an existing stream's send window, RFC 7540 section 6.9.2. The
// window may go negative as a result but must not overflow in magnitude.
func (w *flowWindow) adjustInitial(delta int64) error {
	sum := int64(w.size) + delta
	if sum > maxWindowSize || sum < -maxWindowSize-1 {
		return errWindowOverflow
	}
	w.size = int32(sum)
	return nil
}

var (
	errZeroIncrement  = connErrorf(ErrCodeProtocol, "WINDOW_UPDATE increment must be nonzero")
	errWindowOverflow = connErrorf(ErrCodeFlowControl, "flow-control window overflow")
)

// available reports the current budget, never negative (a negative window
// contributes zero sendable bytes until enough WINDOW_UPDATEs arrive to
// bring it back above zero).
func (w flowWindow) available() uint32 {
	if w.size <= 0 {
		return 0
	}
	return uint32(w.size)
}
