// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hpack

// Decoder turns a field-block (the concatenated payload of a HEADERS frame
// and any CONTINUATION frames that followed it) into a header list.
//
// Grounded on the teacher's server2Conn._decodeFields (hexinfra-gorox
// hemi/web_http2_suite.go), which dispatches on the same five leading-bit
// patterns RFC 7541 section 6 defines. The teacher's switch has no arm for
// "Literal Header Field without Indexing" (prefix 0000) at all — it falls
// through to an unconditional decode failure — and performs no validation
// of the size-update ordering or ceiling rules from section 4.2; both are
// completed here.
//
// A Decoder's dynamic table ceiling is the HEADER_TABLE_SIZE *we*
// advertised to the peer, since the peer's encoder must respect it.
type Decoder struct {
	table             *dynamicTable
	maxHeaderListSize uint32 // 0 means unlimited; RFC 7540 SETTINGS_MAX_HEADER_LIST_SIZE
}

// NewDecoder creates a Decoder whose dynamic table ceiling is tableSize
// (typically the local HEADER_TABLE_SIZE setting, default 4096).
func NewDecoder(tableSize uint32) *Decoder {
	return &Decoder{table: newDynamicTable(tableSize)}
}

// SetMaxDynamicTableSize changes the decoder's table ceiling, in response to
// a local HEADER_TABLE_SIZE setting change taking effect.
func (d *Decoder) SetMaxDynamicTableSize(size uint32) {
	d.table.setCeiling(size)
}

// SetMaxHeaderListSize bounds the cumulative RFC 7541 section 4.1-style size
// (name+value+32 per field) of a single decoded header list. Zero disables
// the check. This mirrors RFC 7540's advisory SETTINGS_MAX_HEADER_LIST_SIZE;
// exceeding it aborts the decode of the current block early with
// ErrCompression so the caller can reset the stream instead of receiving an
// unbounded header list into memory.
func (d *Decoder) SetMaxHeaderListSize(size uint32) {
	d.maxHeaderListSize = size
}

// DecodeFull decodes an entire field block into a header list. Per RFC 7541
// section 4.2, dynamic-table-size-update representations may appear only
// before any header field representation; that ordering is enforced here as
// a running flag rather than the teacher's omission of the rule entirely.
// Several size updates in a row ahead of the first field are accepted.
func (d *Decoder) DecodeFull(block []byte) ([]HeaderField, error) {
	var fields []HeaderField
	var listSize uint32
	sawHeaderField := false
	buf := block
	for len(buf) > 0 {
		b := buf[0]
		switch {
		case b&0x80 != 0: // Indexed Header Field — 1xxxxxxx
			idx, n, ok := decodeInt(buf, 7, 1<<32-1)
			if !ok {
				return nil, ErrCompression
			}
			buf = buf[n:]
			if idx == 0 {
				return nil, ErrCompression
			}
			f, ok := d.lookup(idx)
			if !ok {
				return nil, ErrCompression
			}
			sawHeaderField = true
			fields, listSize, ok = appendBounded(fields, listSize, f, d.maxHeaderListSize)
			if !ok {
				return nil, ErrCompression
			}

		case b&0xc0 == 0x40: // Literal with Incremental Indexing — 01xxxxxx
			f, n, err := d.decodeLiteral(buf, 6)
			if err != nil {
				return nil, err
			}
			buf = buf[n:]
			sawHeaderField = true
			d.table.add(f)
			var ok bool
			fields, listSize, ok = appendBounded(fields, listSize, f, d.maxHeaderListSize)
			if !ok {
				return nil, ErrCompression
			}

		case b&0xe0 == 0x20: // Dynamic Table Size Update — 001xxxxx
			if sawHeaderField {
				return nil, ErrCompression
			}
			size, n, ok := decodeInt(buf, 5, 1<<32-1)
			if !ok || size > uint64(d.table.ceiling) {
				return nil, ErrCompression
			}
			buf = buf[n:]
			d.table.setMaxSize(uint32(size))

		case b&0xf0 == 0x10: // Literal Never Indexed — 0001xxxx
			f, n, err := d.decodeLiteral(buf, 4)
			if err != nil {
				return nil, err
			}
			buf = buf[n:]
			f.Sensitive = true
			sawHeaderField = true
			var ok bool
			fields, listSize, ok = appendBounded(fields, listSize, f, d.maxHeaderListSize)
			if !ok {
				return nil, ErrCompression
			}

		default: // Literal without Indexing — 0000xxxx
			f, n, err := d.decodeLiteral(buf, 4)
			if err != nil {
				return nil, err
			}
			buf = buf[n:]
			sawHeaderField = true
			var ok bool
			fields, listSize, ok = appendBounded(fields, listSize, f, d.maxHeaderListSize)
			if !ok {
				return nil, ErrCompression
			}
		}
	}
	return fields, nil
}

func appendBounded(fields []HeaderField, size uint32, f HeaderField, max uint32) ([]HeaderField, uint32, bool) {
	size += f.Size()
	if max > 0 && size > max {
		return fields, size, false
	}
	return append(fields, f), size, true
}

// lookup resolves an absolute index: 1..61 is static, 62.. is dynamic.
func (d *Decoder) lookup(index uint64) (HeaderField, bool) {
	if index < 1 {
		return HeaderField{}, false
	}
	if index <= StaticTableSize {
		return staticGet(index)
	}
	return d.table.get(index - StaticTableSize)
}

// decodeLiteral decodes a literal representation (with incremental
// indexing, without indexing, or never indexed all share this shape) whose
// name-index prefix occupies the low n bits of buf[0].
func (d *Decoder) decodeLiteral(buf []byte, n byte) (HeaderField, int, error) {
	idx, consumed, ok := decodeInt(buf, n, 1<<32-1)
	if !ok {
		return HeaderField{}, 0, ErrCompression
	}
	var name string
	if idx == 0 {
		s, sn, err := d.decodeString(buf[consumed:])
		if err != nil {
			return HeaderField{}, 0, err
		}
		consumed += sn
		name = s
	} else {
		f, ok := d.lookup(idx)
		if !ok {
			return HeaderField{}, 0, ErrCompression
		}
		name = f.Name
	}
	value, vn, err := d.decodeString(buf[consumed:])
	if err != nil {
		return HeaderField{}, 0, err
	}
	consumed += vn
	return HeaderField{Name: name, Value: value}, consumed, nil
}

// decodeString decodes a length-prefixed string literal, RFC 7541
// section 5.2, Huffman-decoding it if the H bit is set.
func (d *Decoder) decodeString(buf []byte) (string, int, error) {
	if len(buf) == 0 {
		return "", 0, ErrCompression
	}
	huff := buf[0]&0x80 != 0
	length, n, ok := decodeInt(buf, 7, 1<<32-1)
	if !ok {
		return "", 0, ErrCompression
	}
	consumed := n
	if uint64(consumed)+length > uint64(len(buf)) {
		return "", 0, ErrCompression
	}
	raw := buf[consumed : consumed+int(length)]
	consumed += int(length)
	if !huff {
		return string(raw), consumed, nil
	}
	decoded, err := huffmanDecode(nil, raw)
	if err != nil {
		return "", 0, err
	}
	return string(decoded), consumed, nil
}
