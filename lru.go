// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

// closedStreamCapacity bounds how many recently-closed stream ids a
// Connection remembers in order to distinguish "this id was never opened"
// (PROTOCOL_ERROR) from "this id was opened and has since closed" (a late
// WINDOW_UPDATE/RST_STREAM for it is tolerated as STREAM_CLOSED rather than
// failing the connection). spec.md leaves the retention duration an open
// question (Design Note 9a); this engine answers it with a bounded FIFO of
// the last 64 ids, documented in DESIGN.md.
//
// Grounded on the teacher's fixed-size streamIDs array bookkeeping
// (hexinfra-gorox hemi/web_http2_suite.go) — the same "bounded fixed-
// capacity scan" idiom, repurposed here for recently-closed tracking
// instead of active-stream lookup.
const closedStreamCapacity = 64

// closedStreamSet is a bounded FIFO of recently-closed stream ids.
type closedStreamSet struct {
	ids   [closedStreamCapacity]uint32
	set   map[uint32]bool
	head  int
	count int
}

func newClosedStreamSet() *closedStreamSet {
	return &closedStreamSet{set: make(map[uint32]bool, closedStreamCapacity)}
}

func (c *closedStreamSet) add(id uint32) {
	if c.set[id] {
		return
	}
	if c.count == closedStreamCapacity {
		evicted := c.ids[c.head]
		delete(c.set, evicted)
		c.ids[c.head] = id
		c.head = (c.head + 1) % closedStreamCapacity
	} else {
		c.ids[(c.head+c.count)%closedStreamCapacity] = id
		c.count++
	}
	c.set[id] = true
}

func (c *closedStreamSet) contains(id uint32) bool {
	return c.set[id]
}
