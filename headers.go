// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import "github.com/h2wire/h2wire/hpack"

// handleHeaders processes a HEADERS frame: it strips PADDED/PRIORITY
// framing, resolves which stream (new or existing) the block belongs to,
// and either finishes the block immediately (END_HEADERS set) or starts
// accumulating CONTINUATION frames.
func (c *Connection) handleHeaders(f *rawFrame) error {
	if f.streamID == 0 {
		return connErrorf(ErrCodeProtocol, "HEADERS on stream 0")
	}
	parsed, err := decodeHeadersPayload(f.payload, f.flags)
	if err != nil {
		return streamErrorf(f.streamID, ErrCodeProtocol, "%v", err)
	}

	existing := c.lookupStream(f.streamID)
	if existing == nil {
		if c.closedStreams.contains(f.streamID) {
			return c.writer.submitRST(f.streamID, ErrCodeStreamClosed)
		}
		if !c.isValidNewRemoteID(f.streamID) {
			return connErrorf(ErrCodeProtocol, "invalid new stream id %d", f.streamID)
		}
	}

	block := append([]byte(nil), parsed.fieldBlock...)
	if !parsed.endHeaders {
		c.continuationStreamID = f.streamID
		c.continuationBuf = block
		c.continuationEndStream = parsed.endStream
		c.continuationExisting = existing
		return nil
	}
	return c.finishHeaderBlock(f.streamID, existing, block, parsed.endStream)
}

// handleContinuation appends to the in-progress field block and, once
// END_HEADERS arrives, finishes it. dispatch already guarantees this frame
// belongs to the stream currently being accumulated.
func (c *Connection) handleContinuation(f *rawFrame) error {
	if c.continuationStreamID == 0 {
		return connErrorf(ErrCodeProtocol, "CONTINUATION without a preceding HEADERS")
	}
	c.continuationBuf = append(c.continuationBuf, f.payload...)
	if f.flags&flagEndHeaders == 0 {
		return nil
	}
	streamID := c.continuationStreamID
	existing := c.continuationExisting
	block := c.continuationBuf
	endStream := c.continuationEndStream
	c.continuationStreamID = 0
	c.continuationBuf = nil
	c.continuationExisting = nil
	return c.finishHeaderBlock(streamID, existing, block, endStream)
}

// isValidNewRemoteID reports whether id is a legal next id for a
// remote-initiated stream: correct parity for the peer's role, and
// strictly greater than every remote id seen so far.
func (c *Connection) isValidNewRemoteID(id uint32) bool {
	remoteIsOdd := c.isServer // clients use odd ids; servers see odd remote ids
	if remoteIsOdd != (id%2 == 1) {
		return false
	}
	return id > c.highestRemoteID
}

// finishHeaderBlock decodes the complete field block, validates it, and
// either delivers it to an existing stream (as trailers) or creates,
// validates-via-listener, and registers a new stream (as leading headers).
func (c *Connection) finishHeaderBlock(streamID uint32, existing *Stream, block []byte, endStream bool) error {
	fields, err := c.decoder.DecodeFull(block)
	if err != nil {
		return connErrorf(ErrCodeCompression, "HPACK decode failed: %v", err)
	}

	if existing != nil {
		return c.deliverTrailers(existing, fields, endStream)
	}
	return c.deliverLeadingHeaders(streamID, fields, endStream)
}

// deliverTrailers validates fields as a trailing header block (no
// pseudo-headers permitted) and hands them to the stream's reader.
func (c *Connection) deliverTrailers(s *Stream, fields []hpack.HeaderField, endStream bool) error {
	for _, f := range fields {
		if len(f.Name) > 0 && f.Name[0] == ':' {
			return streamErrorf(s.id, ErrCodeProtocol, "pseudo-header %q in trailers", f.Name)
		}
		if err := validateRegularHeader(f); err != nil {
			return err
		}
	}
	select {
	case s.trailers <- fields:
	default:
		return streamErrorf(s.id, ErrCodeInternal, "trailers delivered more than once")
	}
	if endStream {
		s.mu.Lock()
		s.recvEnd = true
		s.mu.Unlock()
		c.finishRemoteHalfClose(s)
	}
	return nil
}

// deliverLeadingHeaders validates a new stream's leading header list,
// offers it to the StreamListener, and on acceptance registers and opens
// the stream. On validation failure it resets the stream id without ever
// exposing a Stream value to the application; on refusal by the
// StreamListener (which has already been handed the Stream) it resets the
// stream id without registering the stream.
func (c *Connection) deliverLeadingHeaders(streamID uint32, fields []hpack.HeaderField, endStream bool) error {
	c.mu.Lock()
	if streamID > c.highestRemoteID {
		c.highestRemoteID = streamID
	}
	c.mu.Unlock()

	v, err := validateHeaderList(fields, c.isServer)
	if err != nil {
		if se, ok := err.(*StreamError); ok {
			se.StreamID = streamID
			c.logger.Warnf("stream %d: leading headers rejected: %v", streamID, se)
			return c.writer.submitRST(streamID, se.Code)
		}
		return err
	}
	if c.headerListSizeLimit > 0 && headerListSize(fields) > c.headerListSizeLimit {
		c.logger.Warnf("stream %d: header list size exceeds local limit %d", streamID, c.headerListSizeLimit)
		return c.writer.submitRST(streamID, ErrCodeRefusedStream)
	}

	remoteInitWindow := c.remoteInitialWindowSize()
	localInitWindow := c.localInitialWindowSize()
	s := newStream(streamID, c, remoteInitWindow, localInitWindow)
	s.mu.Lock()
	s.state = stateOpen
	if endStream {
		s.state = stateHalfClosedRemote
		s.recvEnd = true
	}
	s.mu.Unlock()

	if c.streamListener == nil || !c.streamListener(s) {
		c.logger.Debugf("stream %d: refused by StreamListener", streamID)
		return c.writer.submitRST(streamID, ErrCodeRefusedStream)
	}

	c.mu.Lock()
	c.streams[streamID] = s
	c.mu.Unlock()
	c.logger.Debugf("stream %d: opened, state=%v", streamID, s.state)

	s.headers <- v
	if endStream {
		c.finishRemoteHalfClose(s)
	}
	return nil
}

func (c *Connection) localInitialWindowSize() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localSettings.InitialWindowSize
}
