// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Package hpack implements the header compression codec defined by RFC 7541:
// the static table, a bounded dynamic table, the Huffman and integer codecs
// from section 5, and an Encoder/Decoder pair that turn a header list into a
// compressed block and back.
//
// The package knows nothing about HTTP/2 frames, streams, or connections;
// callers feed it the concatenated field-block bytes of a HEADERS (plus any
// CONTINUATION) frame and get a header list back, or feed it a header list
// and get bytes to place into a frame payload.
package hpack

import "errors"

// ErrCompression is returned by the decoder for any malformed input:
// an out-of-range index, a dynamic-table-size-update that exceeds the
// advertised ceiling or that arrives after a header representation, a
// truncated string literal, or invalid Huffman padding. Callers that
// surface HPACK failures onto the wire (as a connection-level
// COMPRESSION_ERROR, per RFC 7540 section 6.5.3 and section 4.3) should
// treat any error returned from this package that way.
var ErrCompression = errors.New("hpack: compression error")

// HeaderField is a single (name, value) pair with an optional sensitivity
// flag. Names are expected to already be lowercase; the decoder does not
// lowercase incoming names (RFC 7541 places no such requirement on the wire
// format — that rule belongs to the HTTP semantics layer) and the encoder
// lowercases on the way out.
type HeaderField struct {
	Name      string
	Value     string
	Sensitive bool // if true, the encoder must never place this field in the dynamic table
}

// Size is the RFC 7541 section 4.1 accounting size of the field: the
// length of its name and value, plus 32 octets of overhead.
func (f HeaderField) Size() uint32 {
	return uint32(len(f.Name)) + uint32(len(f.Value)) + 32
}

const (
	// StaticTableSize is the number of entries in the RFC 7541 Appendix A
	// static table. Valid static indices are 1..StaticTableSize.
	StaticTableSize = 61

	// DefaultMaxDynamicTableSize is the initial dynamic table size both
	// endpoints assume before any HEADER_TABLE_SIZE setting is exchanged.
	DefaultMaxDynamicTableSize = 4096
)
