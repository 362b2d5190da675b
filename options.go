// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import "github.com/h2wire/h2wire/hpack"

// Transport is the abstract duplex byte channel the engine reads frames
// from and writes frames to. Grounded on the teacher's net.Conn-based I/O
// in server2Conn (hexinfra-gorox hemi/web_http2_suite.go), narrowed to the
// three operations this engine actually needs so a caller can adapt
// anything duplex — a TLS conn, a pipe, an in-memory test double — without
// pulling in net.Conn's full surface.
type Transport interface {
	// Read fills buf with newly available bytes, returning the count read
	// and whether the peer has cleanly closed its write side. Partial
	// reads are allowed.
	Read(buf []byte) (n int, eof bool, err error)
	// Write sends buf in full or returns an error; partial writes are not
	// reported to the caller.
	Write(buf []byte) error
	Close() error
}

// StreamListener is invoked synchronously from the reader task upon a
// validated leading HEADERS frame opening a new remote-initiated stream.
// It must return promptly; returning true accepts the stream (ownership
// transfers to the caller), false refuses it with RST_STREAM(REFUSED_STREAM).
type StreamListener func(*Stream) bool

// Options configures a new Connection. IsServer, Input, and Output are
// required; the rest have sensible defaults.
//
// Grounded on the teacher's getServer2Conn/onGet constructor pattern and
// its RegisterServer-style option struct (hexinfra-gorox
// hemi/web_http2_suite.go); adapted into a transport-agnostic
// NewConnection(Options) entry point since, unlike the teacher, this
// library never owns a listener or TLS config — it only ever owns the two
// Transport handles the caller already connected.
type Options struct {
	IsServer bool
	Input    Transport
	Output   Transport

	LocalSettings       Settings // zero value is replaced with DefaultSettings()
	StreamListener      StreamListener
	HuffmanStrategy     hpack.HuffmanStrategy
	HeaderListSizeLimit uint32 // SETTINGS_MAX_HEADER_LIST_SIZE we enforce locally; 0 = unlimited
	Logger              Logger
}

func (o Options) validate() error {
	if o.Input == nil || o.Output == nil {
		return connErrorf(ErrCodeInternal, "Options.Input and Options.Output are required")
	}
	return nil
}

// NewConnection validates opts and constructs a Connection ready to Serve.
// It performs no I/O; the preface/SETTINGS handshake happens inside Serve.
func NewConnection(opts Options) (*Connection, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	local := opts.LocalSettings
	if local == (Settings{}) {
		local = DefaultSettings()
	}
	if err := local.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	remote := DefaultSettings()
	c := &Connection{
		isServer:            opts.IsServer,
		input:               opts.Input,
		output:              opts.Output,
		localSettings:       local,
		remoteSettings:      remote,
		streamListener:      opts.StreamListener,
		headerListSizeLimit: opts.HeaderListSizeLimit,
		logger:              logger,
		decoder:             hpack.NewDecoder(local.HeaderTableSize),
		encoder:             hpack.NewEncoder(remote.HeaderTableSize),
		bufPool:             newBufferPool(local.MaxFrameSize),
		streams:             make(map[uint32]*Stream),
		closedStreams:       newClosedStreamSet(),
		sendWindow:          newFlowWindow(remote.InitialWindowSize),
		recvWindow:          newFlowWindow(local.InitialWindowSize),
		recvAdvertised:      local.InitialWindowSize,
		done:                make(chan struct{}),
	}
	c.decoder.SetMaxHeaderListSize(opts.HeaderListSizeLimit)
	c.encoder.SetHuffmanStrategy(opts.HuffmanStrategy)
	if opts.IsServer {
		c.nextLocalID = 2
	} else {
		c.nextLocalID = 1
	}
	c.writer = newWriter(c)
	return c, nil
}
