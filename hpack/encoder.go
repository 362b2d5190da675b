// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hpack

import "strings"

// Encoder turns a header list into a field-block. The teacher has no HPACK
// encoder at all (hexinfra-gorox only decodes inbound request headers;
// http2EncodeString is a stub returning (0, false)), so this is a new
// build in the teacher's append-to-caller-buffer idiom.
//
// An Encoder's dynamic table ceiling is the HEADER_TABLE_SIZE the *peer*
// advertised, since the encoder is modeling the peer's decoding table.
//
// Indexing policy (spec.md Open Question (b), decided and documented in
// DESIGN.md): a field whose exact (name, value) pair is already indexed
// (static or dynamic) is emitted as Indexed. A sensitive field is always
// Literal Never Indexed, regardless of table contents. Otherwise, a field is
// added to the dynamic table (Literal with Incremental Indexing) when its
// own size is small relative to the table's capacity — at most 1/4 of
// maxSize — on the theory that a field worth indexing is one that won't by
// itself evict everything else the connection has already paid to index;
// larger or one-off values are sent as Literal without Indexing so they
// don't thrash the table.
type Encoder struct {
	table             *dynamicTable
	huffman           HuffmanStrategy
	pendingSizeUpdate bool
	pendingSize       uint32
}

// HuffmanStrategy selects when string literals are Huffman-encoded.
type HuffmanStrategy int

const (
	// HuffmanSizeHeuristic Huffman-encodes a literal only when doing so is
	// strictly smaller than the raw bytes — the default. Like HuffmanNever,
	// it never makes a block bigger than not compressing at all.
	HuffmanSizeHeuristic HuffmanStrategy = iota
	HuffmanAlways
	HuffmanNever
)

// NewEncoder creates an Encoder whose dynamic table ceiling is tableSize
// (the peer's advertised HEADER_TABLE_SIZE, default 4096).
func NewEncoder(tableSize uint32) *Encoder {
	return &Encoder{table: newDynamicTable(tableSize)}
}

// SetHuffmanStrategy overrides the default size-heuristic Huffman policy.
func (e *Encoder) SetHuffmanStrategy(s HuffmanStrategy) { e.huffman = s }

// SetMaxDynamicTableSize updates the ceiling imposed by the peer's
// HEADER_TABLE_SIZE setting. Per RFC 7541 section 6.3, the change must be
// signaled to the peer via a dynamic-table-size-update representation at
// the start of the next field block this Encoder produces.
func (e *Encoder) SetMaxDynamicTableSize(size uint32) {
	e.table.setCeiling(size)
	e.pendingSizeUpdate = true
	e.pendingSize = e.table.maxSize
}

// EncodeList appends the field-block encoding of fields to dst.
func (e *Encoder) EncodeList(dst []byte, fields []HeaderField) []byte {
	if e.pendingSizeUpdate {
		dst = appendInt(dst, 0x20, 5, uint64(e.pendingSize))
		e.pendingSizeUpdate = false
	}
	for _, f := range fields {
		dst = e.encodeField(dst, f)
	}
	return dst
}

func (e *Encoder) encodeField(dst []byte, f HeaderField) []byte {
	name := strings.ToLower(f.Name)

	if f.Sensitive {
		return e.encodeLiteral(dst, 0x10, 4, name, f.Value, 0)
	}

	if idx, ok := staticExactIndex[HeaderField{Name: name, Value: f.Value}]; ok {
		return appendInt(dst, 0x80, 7, uint64(idx))
	}
	if idx, exact := e.table.find(name, f.Value); exact {
		return appendInt(dst, 0x80, 7, uint64(StaticTableSize+idx))
	}

	if e.table.maxSize > 0 && f.Size() <= e.table.maxSize/4 {
		// Resolve the indexed-name shortcut against the table as it stands
		// before add: adding first would let find see the entry this very
		// field is about to become, emitting a name index the peer's
		// decoder can't have yet (it applies the addition after this
		// representation, per RFC 7541 section 3.2).
		nameIdx := e.indexedNameFor(name)
		e.table.add(HeaderField{Name: name, Value: f.Value})
		return e.encodeLiteral(dst, 0x40, 6, name, f.Value, nameIdx)
	}
	return e.encodeLiteral(dst, 0x00, 4, name, f.Value, 0)
}

// indexedNameFor looks up an indexed-name shortcut for name in the static
// table, then the dynamic table, against the dynamic table's current state.
// Callers that are about to add(name, value) themselves must call this
// first, or the dynamic-table lookup will see its own pending addition.
func (e *Encoder) indexedNameFor(name string) int {
	if idx, ok := staticNameIndex[name]; ok {
		return idx
	}
	if idx, _ := e.table.find(name, ""); idx > 0 {
		return StaticTableSize + idx
	}
	return 0
}

// encodeLiteral encodes a literal representation whose pattern/n select the
// representation shape (incremental-index / without-index / never-index).
// nameIdx, if nonzero, is a precomputed indexed-name shortcut (see
// indexedNameFor); 0 means emit the name as a string literal.
func (e *Encoder) encodeLiteral(dst []byte, pattern byte, n byte, name, value string, nameIdx int) []byte {
	if nameIdx > 0 {
		dst = appendInt(dst, pattern, n, uint64(nameIdx))
	} else {
		dst = appendInt(dst, pattern, n, 0)
		dst = e.appendString(dst, name)
	}
	return e.appendString(dst, value)
}

func (e *Encoder) appendString(dst []byte, s string) []byte {
	useHuffman := false
	switch e.huffman {
	case HuffmanAlways:
		useHuffman = true
	case HuffmanNever:
		useHuffman = false
	default:
		useHuffman = huffmanEncodedLen(s) < len(s)
	}
	if useHuffman {
		hlen := huffmanEncodedLen(s)
		dst = appendInt(dst, 0x80, 7, uint64(hlen))
		return huffmanAppend(dst, s)
	}
	dst = appendInt(dst, 0x00, 7, uint64(len(s)))
	return append(dst, s...)
}
