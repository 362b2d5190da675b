// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import (
	"bytes"
	"testing"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	header := encodeFrameHeader(nil, frameHeaders, flagEndHeaders|flagEndStream, 13, 42)
	f, err := decodeFrameHeader(header, maxFrameSizeCeil)
	if err != nil {
		t.Fatalf("decodeFrameHeader: %v", err)
	}
	if f.length != 42 || f.kind != frameHeaders || f.streamID != 13 {
		t.Fatalf("decoded = %+v", f)
	}
	if !f.hasFlag(flagEndHeaders) || !f.hasFlag(flagEndStream) {
		t.Fatalf("flags = %#x, missing expected bits", f.flags)
	}
}

func TestFrameHeaderRejectsOversizedLength(t *testing.T) {
	header := encodeFrameHeader(nil, frameData, 0, 1, 100)
	if _, err := decodeFrameHeader(header, 50); err == nil {
		t.Fatal("decodeFrameHeader accepted a length exceeding the local max")
	}
}

func TestFrameHeaderStreamIDMasksReservedBit(t *testing.T) {
	header := encodeFrameHeader(nil, frameData, 0, 1<<31|5, 0)
	f, err := decodeFrameHeader(header, maxFrameSizeCeil)
	if err != nil {
		t.Fatalf("decodeFrameHeader: %v", err)
	}
	if f.streamID != 5 {
		t.Fatalf("streamID = %d, want 5 with the reserved bit masked off", f.streamID)
	}
}

func TestStripPaddingRemovesTrailingBytes(t *testing.T) {
	payload := []byte{3, 'h', 'i', 0, 0, 0}
	content, err := stripPadding(payload)
	if err != nil {
		t.Fatalf("stripPadding: %v", err)
	}
	if !bytes.Equal(content, []byte("hi")) {
		t.Fatalf("content = %q, want %q", content, "hi")
	}
}

func TestStripPaddingRejectsOversizedPadLen(t *testing.T) {
	payload := []byte{5, 'h', 'i'}
	if _, err := stripPadding(payload); err == nil {
		t.Fatal("stripPadding accepted a pad length exceeding the remaining payload")
	}
}

func TestDecodeHeadersPayloadStripsPaddingThenPriority(t *testing.T) {
	// pad length 2, priority block (5 bytes), "hdrs", 2 pad bytes.
	payload := []byte{2}
	payload = append(payload, 0, 0, 0, 0, 0) // stream dependency + weight
	payload = append(payload, []byte("hdrs")...)
	payload = append(payload, 0, 0)

	parsed, err := decodeHeadersPayload(payload, flagPadded|flagPriority|flagEndHeaders)
	if err != nil {
		t.Fatalf("decodeHeadersPayload: %v", err)
	}
	if !bytes.Equal(parsed.fieldBlock, []byte("hdrs")) {
		t.Fatalf("fieldBlock = %q, want %q", parsed.fieldBlock, "hdrs")
	}
	if !parsed.endHeaders || parsed.endStream {
		t.Fatalf("parsed = %+v", parsed)
	}
}

func TestDecodeHeadersPayloadRejectsTruncatedPriorityBlock(t *testing.T) {
	if _, err := decodeHeadersPayload([]byte{0, 0}, flagPriority); err == nil {
		t.Fatal("decodeHeadersPayload accepted a truncated PRIORITY block")
	}
}

func TestGoAwayEncodeDecode(t *testing.T) {
	frame := encodeGoAway(nil, 7, ErrCodeEnhanceYourCalm, []byte("slow down"))
	header, err := decodeFrameHeader(frame[:frameHeaderSize], maxFrameSizeCeil)
	if err != nil {
		t.Fatalf("decodeFrameHeader: %v", err)
	}
	g := decodeGoAway(frame[frameHeaderSize:])
	if header.kind != frameGoAway || g.lastStreamID != 7 || g.code != ErrCodeEnhanceYourCalm {
		t.Fatalf("decoded = %+v / %+v", header, g)
	}
	if !bytes.Equal(g.debug, []byte("slow down")) {
		t.Fatalf("debug = %q", g.debug)
	}
}

func TestWindowUpdateEncodeDecodeMasksReservedBit(t *testing.T) {
	frame := encodeWindowUpdate(nil, 3, 1<<31|1000)
	increment := decodeWindowUpdate(frame[frameHeaderSize:])
	if increment != 1000 {
		t.Fatalf("increment = %d, want 1000", increment)
	}
}

func TestCheckSettingsRejectsNonZeroLengthAck(t *testing.T) {
	f := &rawFrame{kind: frameSettings, flags: flagAck, length: 6}
	if err := checkSettings(f); err == nil {
		t.Fatal("checkSettings accepted a nonzero-length SETTINGS ACK")
	}
}

func TestCheckDataRejectsStreamZero(t *testing.T) {
	f := &rawFrame{kind: frameData, streamID: 0}
	if err := checkData(f); err == nil {
		t.Fatal("checkData accepted DATA on stream 0")
	}
}
