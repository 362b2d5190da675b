// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import (
	"testing"

	"github.com/h2wire/h2wire/hpack"
)

func TestStreamWriteDataBeforeHeadersFails(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 65535)
	if err := s.WriteData([]byte("hi"), false); err == nil {
		t.Fatal("WriteData before WriteHeaders should fail")
	}
}

func TestStreamWriteTrailersBeforeDataFails(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 65535)
	if err := s.WriteTrailers([]hpack.HeaderField{{Name: "x", Value: "y"}}); err == nil {
		t.Fatal("WriteTrailers before headers/data should fail")
	}
}

func TestStreamWriteHeadersThenDataQueuesPending(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 65535)
	if err := s.WriteHeaders([]hpack.HeaderField{{Name: ":status", Value: "200"}}, false); err != nil {
		t.Fatalf("WriteHeaders: %v", err)
	}
	if err := s.WriteData([]byte("payload"), true); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if len(s.pending) != 1 || string(s.pending[0]) != "payload" {
		t.Fatalf("pending = %v", s.pending)
	}
	if !s.pendEnd {
		t.Fatal("pendEnd should be set after an end-stream WriteData")
	}
}

func TestStreamWriteDataAfterEndStreamFails(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 65535)
	if err := s.WriteHeaders(nil, false); err != nil {
		t.Fatalf("WriteHeaders: %v", err)
	}
	if err := s.WriteData([]byte("a"), true); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	if err := s.WriteData([]byte("b"), false); err == nil {
		t.Fatal("WriteData after end-stream should fail")
	}
}

func TestStreamReadHeadersDeliversValue(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 65535)
	want := validatedHeaders{method: "GET"}
	s.headers <- want
	got, err := s.ReadHeaders()
	if err != nil {
		t.Fatalf("ReadHeaders: %v", err)
	}
	if got.method != "GET" {
		t.Fatalf("got = %+v", got)
	}
}

func TestStreamReadDataReturnsLeftoverAcrossCalls(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 65535)
	s.data <- []byte("hello world")

	buf := make([]byte, 5)
	n, err := s.ReadData(buf)
	if err != nil || n != 5 || string(buf[:n]) != "hello" {
		t.Fatalf("first read: n=%d err=%v buf=%q", n, err, buf[:n])
	}
	n, err = s.ReadData(buf)
	if err != nil || n != 5 || string(buf[:n]) != " worl" {
		t.Fatalf("second read: n=%d err=%v buf=%q", n, err, buf[:n])
	}
}

func TestStreamCancelIsIdempotentAndClosesChannels(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 65535)
	c.streams[1] = s

	if err := s.Cancel(ErrCodeCancel); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := s.Cancel(ErrCodeCancel); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if !s.isClosed() {
		t.Fatal("stream should be Closed after Cancel")
	}
	if _, ok := <-s.data; ok {
		t.Fatal("data channel should be closed after Cancel")
	}
	if c.closedStreams == nil || !c.closedStreams.contains(1) {
		t.Fatal("Cancel should record the stream id as closed")
	}
}

func TestStreamReadErrorAfterCancel(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 65535)
	c.streams[1] = s
	_ = s.Cancel(ErrCodeRefusedStream)

	_, err := s.ReadHeaders()
	se, ok := err.(*StreamError)
	if !ok || se.Code != ErrCodeRefusedStream {
		t.Fatalf("ReadHeaders error = %v, want StreamError{RefusedStream}", err)
	}
}

func TestStreamSendWindowDebitCredit(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 100, 65535)
	s.debitSend(40)
	if got := s.sendAvailable(); got != 60 {
		t.Fatalf("sendAvailable = %d, want 60", got)
	}
	if err := s.creditSend(10); err != nil {
		t.Fatalf("creditSend: %v", err)
	}
	if got := s.sendAvailable(); got != 70 {
		t.Fatalf("sendAvailable = %d, want 70", got)
	}
}

func TestStreamAccumulateConsumedOnlyCreditsPastHalf(t *testing.T) {
	c := newTestConnection(t)
	s := newStream(1, c, 65535, 100)
	if inc := s.accumulateConsumed(40); inc != 0 {
		t.Fatalf("accumulateConsumed(40) = %d, want 0 before crossing half", inc)
	}
	if inc := s.accumulateConsumed(20); inc != 60 {
		t.Fatalf("accumulateConsumed(20) = %d, want 60 once the running total crosses half", inc)
	}
	if s.consumedSinceUpdate != 0 {
		t.Fatalf("consumedSinceUpdate = %d, want reset to 0 after crediting", s.consumedSinceUpdate)
	}
}
