// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import (
	"strings"

	"github.com/h2wire/h2wire/hpack"
)

// Header validation, RFC 7540 section 8.1.2. The teacher has no pseudo-header
// ordering or forbidden-header validation at all — server2Stream hands
// decoded fields straight to its HTTP/1-shaped request object — so this is a
// new build, shaped like the pack's other validation passes (a single
// ordered scan building up which pseudo-headers were seen) but implementing
// the exact rule set below.

var forbiddenHeaderNames = map[string]bool{
	"connection":       true,
	"proxy-connection": true,
	"keep-alive":       true,
	"transfer-encoding": true,
	"upgrade":          true,
}

// validatedHeaders is the result of validateHeaderList: pseudo-headers
// pulled out by name for the caller's convenience, plus the regular fields
// in wire order.
type validatedHeaders struct {
	method    string
	scheme    string
	path      string
	authority string
	status    string
	regular   []hpack.HeaderField
}

// validateHeaderList applies RFC 7540 section 8.1.2's rules to a decoded
// header list. isRequest selects the request-pseudo-header rule set
// (:method/:scheme/:path/:authority) versus the response rule set (:status).
func validateHeaderList(fields []hpack.HeaderField, isRequest bool) (validatedHeaders, error) {
	var v validatedHeaders
	seenPseudo := map[string]bool{}
	sawRegular := false

	for _, f := range fields {
		if strings.HasPrefix(f.Name, ":") {
			if sawRegular {
				return v, streamErrorf(0, ErrCodeProtocol, "pseudo-header %q after regular header", f.Name)
			}
			if seenPseudo[f.Name] {
				return v, streamErrorf(0, ErrCodeProtocol, "duplicate pseudo-header %q", f.Name)
			}
			seenPseudo[f.Name] = true
			if err := assignPseudoHeader(&v, f, isRequest); err != nil {
				return v, err
			}
			continue
		}
		sawRegular = true
		if err := validateRegularHeader(f); err != nil {
			return v, err
		}
		v.regular = append(v.regular, f)
	}

	if isRequest {
		if err := validateRequestPseudoHeaders(v, seenPseudo); err != nil {
			return v, err
		}
	} else {
		if !seenPseudo[":status"] || len(v.status) != 3 || !isThreeDigits(v.status) {
			return v, streamErrorf(0, ErrCodeProtocol, "missing or malformed :status")
		}
	}
	return v, nil
}

func assignPseudoHeader(v *validatedHeaders, f hpack.HeaderField, isRequest bool) error {
	switch f.Name {
	case ":method":
		v.method = f.Value
	case ":scheme":
		v.scheme = f.Value
	case ":path":
		v.path = f.Value
	case ":authority":
		v.authority = f.Value
	case ":status":
		v.status = f.Value
	default:
		return streamErrorf(0, ErrCodeProtocol, "unknown pseudo-header %q", f.Name)
	}
	if isRequest && f.Name == ":status" {
		return streamErrorf(0, ErrCodeProtocol, ":status is a response pseudo-header")
	}
	if !isRequest && f.Name != ":status" {
		return streamErrorf(0, ErrCodeProtocol, "%q is a request pseudo-header", f.Name)
	}
	return nil
}

func validateRequestPseudoHeaders(v validatedHeaders, seen map[string]bool) error {
	if !seen[":method"] {
		return streamErrorf(0, ErrCodeProtocol, "missing :method")
	}
	if v.method == "CONNECT" {
		if seen[":scheme"] || seen[":path"] {
			return streamErrorf(0, ErrCodeProtocol, "CONNECT must not carry :scheme or :path")
		}
		if !seen[":authority"] {
			return streamErrorf(0, ErrCodeProtocol, "CONNECT requires :authority")
		}
		return nil
	}
	if !seen[":scheme"] || !seen[":path"] {
		return streamErrorf(0, ErrCodeProtocol, "missing :scheme or :path")
	}
	if v.path == "" {
		return streamErrorf(0, ErrCodeProtocol, ":path must be non-empty")
	}
	return nil
}

func isThreeDigits(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// validateRegularHeader checks the token charset and forbidden-header
// rules for one non-pseudo field.
func validateRegularHeader(f hpack.HeaderField) error {
	for _, c := range f.Name {
		if c >= 'A' && c <= 'Z' {
			return streamErrorf(0, ErrCodeProtocol, "header name %q contains uppercase", f.Name)
		}
		if !isTokenChar(byte(c)) {
			return streamErrorf(0, ErrCodeProtocol, "header name %q contains invalid character", f.Name)
		}
	}
	if forbiddenHeaderNames[f.Name] {
		return streamErrorf(0, ErrCodeProtocol, "forbidden connection-specific header %q", f.Name)
	}
	if f.Name == "te" && f.Value != "trailers" {
		return streamErrorf(0, ErrCodeProtocol, "te header value %q, only \"trailers\" is allowed", f.Value)
	}
	return nil
}

// isTokenChar reports whether b is valid in an RFC 7230 section 3.2.6 token,
// which RFC 7540 section 8.1.2 requires header field names to be.
func isTokenChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// headerListSize is the RFC 7541 section 4.1-style accounting size used by
// SETTINGS_MAX_HEADER_LIST_SIZE, RFC 7540 section 6.5.2.
func headerListSize(fields []hpack.HeaderField) uint32 {
	var total uint32
	for _, f := range fields {
		total += f.Size()
	}
	return total
}
