// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Package h2wire implements the connection- and stream-level state machine
// of HTTP/2 (RFC 7540) as a transport-agnostic library: frame parsing and
// serialization, settings negotiation, flow control, stream lifecycle, and a
// writer scheduler that multiplexes frames onto a single duplex byte
// transport. Header compression lives in the sibling hpack package; this
// package owns everything above it — frames, streams, and the connection.
//
// h2wire does not open sockets, terminate TLS, negotiate ALPN, or perform
// the HTTP/1.1 upgrade handshake. Callers supply an already-connected
// Transport and get back a Connection that reads and writes frames on it.
package h2wire
