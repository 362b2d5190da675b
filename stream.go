// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import (
	"errors"
	"sync"

	"github.com/h2wire/h2wire/hpack"
)

// streamState enumerates the RFC 7540 section 5.1 stream states. Grounded
// on the teacher's http2StateXXX constants (hexinfra-gorox
// hemi/web_proto_http2.go), which only name the subset a server-only,
// no-push implementation reaches; reservedLocal/reservedRemote are carried
// here for data-model completeness (PUSH_PROMISE emission is a non-goal, so
// stateReservedLocal is never entered by this engine; stateReservedRemote
// would be entered on receipt of a PUSH_PROMISE, a client-side conformance
// point this engine parses but does not act on further).
type streamState uint8

const (
	stateIdle streamState = iota
	stateReservedLocal
	stateReservedRemote
	stateOpen
	stateHalfClosedLocal
	stateHalfClosedRemote
	stateClosed
)

func (s streamState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateReservedLocal:
		return "reserved_local"
	case stateReservedRemote:
		return "reserved_remote"
	case stateOpen:
		return "open"
	case stateHalfClosedLocal:
		return "half_closed_local"
	case stateHalfClosedRemote:
		return "half_closed_remote"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// pendingDataChunks bounds the per-stream inbound data queue, RFC 7540
// section 5.2's backpressure story: a consumer that stops reading simply
// stops credit, stops the sender sending, and the queue here never needs to
// grow past the window the stream itself advertises. Grounded on the
// teacher's fixed-size incomingChan/outgoingChan channels (hexinfra-gorox
// hemi/web_http2_suite.go), sized small and trusting flow control for the
// real backpressure rather than a large buffer.
const pendingDataChunks = 8

var (
	errWriteBeforeHeaders = errors.New("h2wire: WriteData before WriteHeaders")
	errTrailersBeforeData = errors.New("h2wire: WriteTrailers before any data or unfinished leading headers")
)

// Stream is one HTTP/2 stream: a bidirectional sequence of frames sharing
// an id, multiplexed with other streams over one Connection.
//
// Grounded on the teacher's server2Stream (hexinfra-gorox
// hemi/web_http2_suite.go); rebuilt because the teacher's stream object is
// HTTP/1-request-shaped (an embedded webIn/webOut pair) where this engine
// needs the header-list-and-byte-stream API from spec.md section 4.J.
type Stream struct {
	id   uint32
	conn *Connection

	mu                  sync.Mutex
	state               streamState
	sendWindow          flowWindow
	recvWindow          flowWindow
	recvAdvertised      uint32 // window size last advertised to the peer
	consumedSinceUpdate uint32 // bytes consumed by ReadData since the last stream WINDOW_UPDATE
	resetCode           *ErrorCode
	resetCause          error
	sentHeaders         bool
	sentEnd             bool
	recvEnd             bool

	closeOnce sync.Once
	headers   chan validatedHeaders    // buffered 1, leading header list
	data      chan []byte              // buffered pendingDataChunks
	trailers  chan []hpack.HeaderField // buffered 1

	recvMu      sync.Mutex
	recvLeftover []byte // tail of a data chunk ReadData couldn't fully drain

	pendingMu sync.Mutex
	pending   [][]byte // outbound data chunks awaiting the writer
	pendEnd   bool     // true once the last enqueued chunk carries END_STREAM
}

func newStream(id uint32, conn *Connection, initialSendWindow, initialRecvWindow uint32) *Stream {
	return &Stream{
		id:             id,
		conn:           conn,
		state:          stateIdle,
		sendWindow:     newFlowWindow(initialSendWindow),
		recvWindow:     newFlowWindow(initialRecvWindow),
		recvAdvertised: initialRecvWindow,
		headers:        make(chan validatedHeaders, 1),
		data:           make(chan []byte, pendingDataChunks),
		trailers:       make(chan []hpack.HeaderField, 1),
	}
}

// ID is the stream's 31-bit identifier.
func (s *Stream) ID() uint32 { return s.id }

// ReadHeaders blocks for the stream's leading header list. It is legal to
// call exactly once per stream, before ReadData.
func (s *Stream) ReadHeaders() (validatedHeaders, error) {
	v, ok := <-s.headers
	if !ok {
		return validatedHeaders{}, s.readError()
	}
	return v, nil
}

// ReadData delivers at most len(buf) bytes of the stream's payload into
// buf, returning the number of bytes read. A zero-byte, nil-error result
// signals a clean end-of-stream.
func (s *Stream) ReadData(buf []byte) (int, error) {
	s.recvMu.Lock()
	leftover := s.recvLeftover
	s.recvMu.Unlock()
	if len(leftover) > 0 {
		n := copy(buf, leftover)
		s.recvMu.Lock()
		s.recvLeftover = leftover[n:]
		s.recvMu.Unlock()
		s.conn.onStreamDataConsumed(s, uint32(n))
		return n, nil
	}
	chunk, ok := <-s.data
	if !ok {
		return 0, s.readError() // nil error means a clean end-of-stream
	}
	n := copy(buf, chunk)
	if n < len(chunk) {
		s.recvMu.Lock()
		s.recvLeftover = chunk[n:]
		s.recvMu.Unlock()
	}
	s.conn.onStreamDataConsumed(s, uint32(n))
	return n, nil
}

// ReadTrailers blocks for a trailing header list. Legal only after
// end-of-stream has been observed on ReadData (a zero-byte, nil-error
// result, or s.data closing).
func (s *Stream) ReadTrailers() ([]hpack.HeaderField, error) {
	trailers, ok := <-s.trailers
	if !ok {
		return nil, s.readError()
	}
	return trailers, nil
}

func (s *Stream) readError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetCode != nil {
		return &StreamError{StreamID: s.id, Code: *s.resetCode, Cause: s.resetCause}
	}
	return nil
}

// WriteHeaders sends headers as the stream's leading or trailing header
// list. The first call on a locally-initiated or accepted stream is
// mandatory before WriteData.
func (s *Stream) WriteHeaders(headers []hpack.HeaderField, endStream bool) error {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return &StreamError{StreamID: s.id, Code: ErrCodeStreamClosed}
	}
	s.sentHeaders = true
	if endStream {
		s.sentEnd = true
	}
	s.mu.Unlock()
	return s.conn.writer.submitHeaders(s, headers, endStream)
}

// WriteData enqueues buf for transmission, respecting flow control at the
// writer scheduler's discretion. Legal only after WriteHeaders.
func (s *Stream) WriteData(buf []byte, endStream bool) error {
	s.mu.Lock()
	if !s.sentHeaders {
		s.mu.Unlock()
		return &StreamError{StreamID: s.id, Code: ErrCodeInternal, Cause: errWriteBeforeHeaders}
	}
	if s.state == stateClosed || s.sentEnd {
		s.mu.Unlock()
		return &StreamError{StreamID: s.id, Code: ErrCodeStreamClosed}
	}
	if endStream {
		s.sentEnd = true
	}
	s.mu.Unlock()

	s.pendingMu.Lock()
	if len(buf) > 0 {
		s.pending = append(s.pending, buf)
	}
	if endStream {
		s.pendEnd = true
	}
	s.pendingMu.Unlock()
	s.conn.writer.notifyDataReady(s)
	return nil
}

// WriteTrailers sends a trailing header list and implies end-of-stream.
// Legal only once some data, or leading headers without end-of-stream,
// already went out.
func (s *Stream) WriteTrailers(trailers []hpack.HeaderField) error {
	s.mu.Lock()
	if !s.sentHeaders || s.sentEnd {
		s.mu.Unlock()
		return &StreamError{StreamID: s.id, Code: ErrCodeInternal, Cause: errTrailersBeforeData}
	}
	s.sentEnd = true
	s.mu.Unlock()
	return s.conn.writer.submitHeaders(s, trailers, true)
}

// Cancel enqueues RST_STREAM with code, idempotently, and transitions the
// stream to Closed. Safe to call from any goroutine. A Stream that is
// dropped without calling Cancel sends no RST_STREAM: it stays registered
// with its Connection until the stream closes through the protocol or the
// connection shuts down, when closeLocally closes it with the connection's
// error code.
func (s *Stream) Cancel(code ErrorCode) error {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = stateClosed
	if s.resetCode == nil {
		c := code
		s.resetCode = &c
	}
	s.mu.Unlock()
	s.closeChannels()
	s.conn.forgetStream(s.id)
	return s.conn.writer.submitRST(s.id, code)
}

// closeLocally marks the stream Closed without sending RST_STREAM, for
// closures caused by the peer or the connection (an RST_STREAM received
// from the peer, or connection shutdown) rather than an explicit local
// Cancel.
func (s *Stream) closeLocally(code ErrorCode, cause error) {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	s.state = stateClosed
	if s.resetCode == nil {
		c := code
		s.resetCode = &c
		s.resetCause = cause
	}
	s.mu.Unlock()
	s.closeChannels()
}

func (s *Stream) closeChannels() {
	s.closeOnce.Do(func() {
		close(s.headers)
		close(s.data)
		close(s.trailers)
	})
}

func (s *Stream) sendAvailable() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendWindow.available()
}

func (s *Stream) debitSend(n uint32) {
	s.mu.Lock()
	s.sendWindow.debit(n)
	s.mu.Unlock()
}

func (s *Stream) creditSend(increment uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendWindow.credit(increment)
}

func (s *Stream) adjustSendInitial(delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendWindow.adjustInitial(delta)
}

// accumulateConsumed folds n more consumed bytes into the stream's running
// total, crediting and returning a WINDOW_UPDATE increment once the total
// reaches half of the advertised window.
func (s *Stream) accumulateConsumed(n uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumedSinceUpdate += n
	if s.consumedSinceUpdate < s.recvAdvertised/2 {
		return 0
	}
	increment := s.consumedSinceUpdate
	s.consumedSinceUpdate = 0
	s.recvWindow.credit(increment)
	return increment
}

// isClosed reports whether the stream has already transitioned to Closed.
func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateClosed
}
