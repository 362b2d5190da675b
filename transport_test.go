// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import (
	"bytes"
	"sync"
	"testing"
)

// memTransport is an in-memory Transport backed by a byte buffer, used by
// tests that need a real Connection/writer pair without a socket.
type memTransport struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (t *memTransport) Read(buf []byte) (int, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.buf.Len() == 0 {
		return 0, t.closed, nil
	}
	n, _ := t.buf.Read(buf)
	return n, false, nil
}

func (t *memTransport) Write(buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.buf.Write(buf)
	return err
}

func (t *memTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *memTransport) bufLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Len()
}

func (t *memTransport) snapshot() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.buf.Bytes()...)
}

func newTestConnection(t *testing.T) *Connection {
	t.Helper()
	c, err := NewConnection(Options{
		IsServer: true,
		Input:    &memTransport{},
		Output:   &memTransport{},
	})
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	return c
}
