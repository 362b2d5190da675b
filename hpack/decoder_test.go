// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hpack

import "testing"

func TestDecodeFullIndexedStatic(t *testing.T) {
	d := NewDecoder(4096)
	// Index 2 is :method GET.
	fields, err := d.DecodeFull([]byte{0x82})
	if err != nil {
		t.Fatalf("DecodeFull error: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != ":method" || fields[0].Value != "GET" {
		t.Fatalf("fields = %+v", fields)
	}
}

func TestDecodeFullIndexZeroRejected(t *testing.T) {
	d := NewDecoder(4096)
	if _, err := d.DecodeFull([]byte{0x80}); err == nil {
		t.Fatal("DecodeFull accepted index 0")
	}
}

func TestDecodeFullLiteralWithIncrementalIndexing(t *testing.T) {
	d := NewDecoder(4096)
	e := NewEncoder(4096)
	block := e.EncodeList(nil, []HeaderField{{Name: "custom-key", Value: "custom-value"}})
	fields, err := d.DecodeFull(block)
	if err != nil {
		t.Fatalf("DecodeFull error: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "custom-key" || fields[0].Value != "custom-value" {
		t.Fatalf("fields = %+v", fields)
	}
	if d.table.count != 1 {
		t.Fatalf("decoder table count = %d, want 1", d.table.count)
	}
}

func TestDecodeFullLiteralWithoutIndexingDoesNotIndex(t *testing.T) {
	d := NewDecoder(4096)
	// Literal without indexing, new name "x", new value "y".
	block := []byte{0x00, 0x01, 'x', 0x01, 'y'}
	fields, err := d.DecodeFull(block)
	if err != nil {
		t.Fatalf("DecodeFull error: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "x" || fields[0].Value != "y" {
		t.Fatalf("fields = %+v", fields)
	}
	if d.table.count != 0 {
		t.Fatal("literal without indexing was added to the dynamic table")
	}
}

func TestDecodeFullNeverIndexedMarksSensitive(t *testing.T) {
	d := NewDecoder(4096)
	block := []byte{0x10, 0x06, 's', 'e', 'c', 'r', 'e', 't', 0x03, 'a', 'b', 'c'}
	fields, err := d.DecodeFull(block)
	if err != nil {
		t.Fatalf("DecodeFull error: %v", err)
	}
	if len(fields) != 1 || !fields[0].Sensitive {
		t.Fatalf("fields = %+v; want Sensitive", fields)
	}
	if d.table.count != 0 {
		t.Fatal("never-indexed field was added to the dynamic table")
	}
}

func TestDecodeFullSizeUpdateMustPrecedeFields(t *testing.T) {
	d := NewDecoder(4096)
	// Indexed field (0x82) followed by a size update (0x20) is out of order.
	block := []byte{0x82, 0x20}
	if _, err := d.DecodeFull(block); err == nil {
		t.Fatal("DecodeFull accepted a size update after a header field")
	}
}

func TestDecodeFullSizeUpdateExceedsCeiling(t *testing.T) {
	d := NewDecoder(100)
	update := appendInt(nil, 0x20, 5, 200)
	if _, err := d.DecodeFull(update); err == nil {
		t.Fatal("DecodeFull accepted a size update beyond the ceiling")
	}
}

func TestDecodeFullMaxHeaderListSize(t *testing.T) {
	d := NewDecoder(4096)
	d.SetMaxHeaderListSize(40)
	block := []byte{0x00, 0x01, 'x', 0x0a, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	if _, err := d.DecodeFull(block); err == nil {
		t.Fatal("DecodeFull accepted a header list beyond the configured max size")
	}
}

func TestDecodeFullTruncatedStringRejected(t *testing.T) {
	d := NewDecoder(4096)
	block := []byte{0x00, 0x05, 'a', 'b'}
	if _, err := d.DecodeFull(block); err == nil {
		t.Fatal("DecodeFull accepted a truncated string literal")
	}
}

func TestDecodeFullRFC7541AppendixC(t *testing.T) {
	// RFC 7541 appendix C.2.1: literal header field with incremental
	// indexing, new name, no Huffman.
	block := []byte{
		0x40, 0x0a, 'c', 'u', 's', 't', 'o', 'm', '-', 'k', 'e', 'y',
		0x0d, 'c', 'u', 's', 't', 'o', 'm', '-', 'h', 'e', 'a', 'd', 'e', 'r',
	}
	d := NewDecoder(4096)
	fields, err := d.DecodeFull(block)
	if err != nil {
		t.Fatalf("DecodeFull error: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "custom-key" || fields[0].Value != "custom-header" {
		t.Fatalf("fields = %+v", fields)
	}
}
