// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hpack

// Prefix-integer codec, RFC 7541 section 5.1.
//
// Grounded on the teacher's http2DecodeInteger/http2EncodeInteger
// (hexinfra-gorox hemi/web_proto_http2.go). The teacher's decode loop
// accumulates into I before checking against max, which lets a value
// overrun max by one continuation octet before the caller notices; this
// version checks before folding each octet in, so decodeInt never returns
// ok=true for a value the caller didn't ask to accept.

// decodeInt decodes a prefix-coded integer occupying the low n bits of
// src[0] (n in [1,8]) and, if the prefix bits are all set, zero or more
// continuation octets. max bounds the accepted value (e.g. the remaining
// bytes in the block, or a protocol limit); decodeInt reports ok=false if
// the encoded value would exceed max, if src is too short, or if the
// encoding is non-canonical (more continuation octets than necessary).
func decodeInt(src []byte, n byte, max uint64) (value uint64, consumed int, ok bool) {
	if len(src) == 0 || n < 1 || n > 8 {
		return 0, 0, false
	}
	prefixMax := uint64(1<<n) - 1
	value = uint64(src[0])
	if n < 8 {
		value &= prefixMax
	}
	if value < prefixMax {
		if value > max {
			return 0, 0, false
		}
		return value, 1, true
	}
	i := 1
	shift := uint(0)
	for {
		if i >= len(src) {
			return 0, 0, false
		}
		b := src[i]
		i++
		if shift >= 64 {
			return 0, 0, false
		}
		add := uint64(b&0x7f) << shift
		if add>>shift != uint64(b&0x7f) { // shift overflowed
			return 0, 0, false
		}
		sum := value + add
		if sum < value { // overflow
			return 0, 0, false
		}
		value = sum
		if b&0x80 == 0 {
			if b == 0 && i > 2 { // a zero final octet after the first adds nothing: non-canonical
				return 0, 0, false
			}
			if value > max {
				return 0, 0, false
			}
			return value, i, true
		}
		if value > max {
			return 0, 0, false
		}
		shift += 7
	}
}

// appendInt appends the prefix-integer encoding of value to dst. pattern
// carries the representation's leading bits already shifted into position
// (e.g. 0x80 for an indexed field); n is the number of low bits of the
// first octet available to the integer (n in [1,8]).
func appendInt(dst []byte, pattern byte, n byte, value uint64) []byte {
	prefixMax := uint64(1<<n) - 1
	if value < prefixMax {
		return append(dst, pattern|byte(value))
	}
	dst = append(dst, pattern|byte(prefixMax))
	value -= prefixMax
	for value >= 0x80 {
		dst = append(dst, byte(value&0x7f)|0x80)
		value >>= 7
	}
	return append(dst, byte(value))
}
