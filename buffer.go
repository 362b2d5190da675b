// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import "sync"

// frameHeaderSize is the fixed RFC 7540 section 4.1 frame header length.
const frameHeaderSize = 9

// bufferPool recycles byte slices sized to the connection's current
// MAX_FRAME_SIZE so the reader and writer tasks don't allocate one per
// frame on the hot path.
//
// Grounded on the teacher's poolHTTP2Buffer/http2Buffer (hexinfra-gorox
// hemi/web_proto_http2.go): a sync.Pool of fixed 9+http2MaxFrameSize byte
// arrays with an atomic refcount so a buffer backing a still-unread DATA
// payload isn't recycled out from under the reader. The teacher hardcodes
// the arena at the compile-time constant http2MaxFrameSize (16K);
// generalized here to resize per pool when the local MAX_FRAME_SIZE setting
// is configured outside the default, since the RFC allows up to 16777215.
type bufferPool struct {
	pool     sync.Pool
	capacity int
}

func newBufferPool(maxFrameSize uint32) *bufferPool {
	capacity := frameHeaderSize + int(maxFrameSize)
	bp := &bufferPool{capacity: capacity}
	bp.pool.New = func() any {
		buf := make([]byte, capacity)
		return &buf
	}
	return bp
}

// get returns a buffer of at least bp.capacity bytes, truncated to 0 length.
func (bp *bufferPool) get() []byte {
	buf := *bp.pool.Get().(*[]byte)
	return buf[:0]
}

// put returns buf to the pool, provided it was sized by this pool. Buffers
// from a since-resized pool (MAX_FRAME_SIZE changed) are simply dropped for
// the GC to collect, since sync.Pool has no shrink operation.
func (bp *bufferPool) put(buf []byte) {
	if cap(buf) < bp.capacity {
		return
	}
	buf = buf[:cap(buf)]
	bp.pool.Put(&buf)
}
