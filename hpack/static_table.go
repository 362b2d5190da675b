// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hpack

// Static table, RFC 7541 Appendix A.
//
// The teacher's own static table (hexinfra-gorox hemi/web_proto_http2.go,
// http2StaticTable) is an unfilled "// TODO" — only the struct shape
// (byte spans into a shared string) survives there. The entries themselves
// are grounded on MiraiMindz-watt/hpack_static.go's staticTable array from
// the retrieval pack, which lists the full 61-entry RFC table; index 0 here
// is left zero-valued the same way both sources do, since real indices
// start at 1.
var staticTable = [StaticTableSize + 1]HeaderField{
	{}, // index 0 is unused
	{Name: ":authority"},
	{Name: ":method", Value: "GET"},
	{Name: ":method", Value: "POST"},
	{Name: ":path", Value: "/"},
	{Name: ":path", Value: "/index.html"},
	{Name: ":scheme", Value: "http"},
	{Name: ":scheme", Value: "https"},
	{Name: ":status", Value: "200"},
	{Name: ":status", Value: "204"},
	{Name: ":status", Value: "206"},
	{Name: ":status", Value: "304"},
	{Name: ":status", Value: "400"},
	{Name: ":status", Value: "404"},
	{Name: ":status", Value: "500"},
	{Name: "accept-charset"},
	{Name: "accept-encoding", Value: "gzip, deflate"},
	{Name: "accept-language"},
	{Name: "accept-ranges"},
	{Name: "accept"},
	{Name: "access-control-allow-origin"},
	{Name: "age"},
	{Name: "allow"},
	{Name: "authorization"},
	{Name: "cache-control"},
	{Name: "content-disposition"},
	{Name: "content-encoding"},
	{Name: "content-language"},
	{Name: "content-length"},
	{Name: "content-location"},
	{Name: "content-range"},
	{Name: "content-type"},
	{Name: "cookie"},
	{Name: "date"},
	{Name: "etag"},
	{Name: "expect"},
	{Name: "expires"},
	{Name: "from"},
	{Name: "host"},
	{Name: "if-match"},
	{Name: "if-modified-since"},
	{Name: "if-none-match"},
	{Name: "if-range"},
	{Name: "if-unmodified-since"},
	{Name: "last-modified"},
	{Name: "link"},
	{Name: "location"},
	{Name: "max-forwards"},
	{Name: "proxy-authenticate"},
	{Name: "proxy-authorization"},
	{Name: "range"},
	{Name: "referer"},
	{Name: "refresh"},
	{Name: "retry-after"},
	{Name: "server"},
	{Name: "set-cookie"},
	{Name: "strict-transport-security"},
	{Name: "transfer-encoding"},
	{Name: "user-agent"},
	{Name: "vary"},
	{Name: "via"},
	{Name: "www-authenticate"},
}

// staticNameIndex maps a header name to the lowest static index that uses
// it, for the encoder's indexed-name literal shortcut.
var staticNameIndex = func() map[string]int {
	m := make(map[string]int, StaticTableSize)
	for i := 1; i <= StaticTableSize; i++ {
		if _, ok := m[staticTable[i].Name]; !ok {
			m[staticTable[i].Name] = i
		}
	}
	return m
}()

// staticExactIndex maps a full (name, value) pair to its static index, for
// the encoder's indexed-field shortcut.
var staticExactIndex = func() map[HeaderField]int {
	m := make(map[HeaderField]int, StaticTableSize)
	for i := 1; i <= StaticTableSize; i++ {
		f := staticTable[i]
		if f.Value != "" {
			m[HeaderField{Name: f.Name, Value: f.Value}] = i
		}
	}
	return m
}()

func staticGet(index uint64) (HeaderField, bool) {
	if index < 1 || index > StaticTableSize {
		return HeaderField{}, false
	}
	return staticTable[index], true
}
