// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

// Settings identifiers, RFC 7540 section 6.5.2.
type settingID uint16

const (
	settingHeaderTableSize      settingID = 0x1
	settingEnablePush           settingID = 0x2
	settingMaxConcurrentStreams settingID = 0x3
	settingInitialWindowSize    settingID = 0x4
	settingMaxFrameSize         settingID = 0x5
	settingMaxHeaderListSize    settingID = 0x6
)

const (
	maxFrameSizeFloor = 16384
	maxFrameSizeCeil  = 16777215
	maxWindowSize     = 1<<31 - 1
)

// Settings holds one side's view (either "what we advertise" or "what the
// peer advertised") of the six RFC 7540 settings. Grounded on the teacher's
// flat http2Settings struct of int32/bool fields (hexinfra-gorox
// hemi/web_proto_http2.go); generalized to distinguish "unlimited" from "0"
// for MaxConcurrentStreams and MaxHeaderListSize, which the teacher conflates
// with a bare 0 field.
type Settings struct {
	HeaderTableSize      uint32
	EnablePush           bool
	MaxConcurrentStreams uint32 // 0 means unlimited
	InitialWindowSize    uint32
	MaxFrameSize         uint32
	MaxHeaderListSize    uint32 // 0 means unlimited
}

// DefaultSettings returns the RFC 7540 section 11.3 initial values.
func DefaultSettings() Settings {
	return Settings{
		HeaderTableSize:      4096,
		EnablePush:           true,
		MaxConcurrentStreams: 0,
		InitialWindowSize:    65535,
		MaxFrameSize:         maxFrameSizeFloor,
		MaxHeaderListSize:    0,
	}
}

// Validate rejects settings values RFC 7540 forbids outright, so that a
// caller's local_settings choice fails fast at construction rather than
// producing a connection that can never negotiate.
func (s Settings) Validate() error {
	if s.InitialWindowSize > maxWindowSize {
		return connErrorf(ErrCodeFlowControl, "initial window size %d exceeds %d", s.InitialWindowSize, maxWindowSize)
	}
	if s.MaxFrameSize < maxFrameSizeFloor || s.MaxFrameSize > maxFrameSizeCeil {
		return connErrorf(ErrCodeProtocol, "max frame size %d outside [%d, %d]", s.MaxFrameSize, maxFrameSizeFloor, maxFrameSizeCeil)
	}
	return nil
}

// encode appends the SETTINGS payload (a sequence of id:uint16/value:uint32
// pairs) for the fields present in s, in RFC 7540 section 6.5.1's order.
func (s Settings) encode(dst []byte) []byte {
	dst = appendSetting(dst, settingHeaderTableSize, s.HeaderTableSize)
	if s.EnablePush {
		dst = appendSetting(dst, settingEnablePush, 1)
	} else {
		dst = appendSetting(dst, settingEnablePush, 0)
	}
	if s.MaxConcurrentStreams != 0 {
		dst = appendSetting(dst, settingMaxConcurrentStreams, s.MaxConcurrentStreams)
	}
	dst = appendSetting(dst, settingInitialWindowSize, s.InitialWindowSize)
	dst = appendSetting(dst, settingMaxFrameSize, s.MaxFrameSize)
	if s.MaxHeaderListSize != 0 {
		dst = appendSetting(dst, settingMaxHeaderListSize, s.MaxHeaderListSize)
	}
	return dst
}

func appendSetting(dst []byte, id settingID, value uint32) []byte {
	return append(dst,
		byte(id>>8), byte(id),
		byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
}

// applySettingsFrame parses a SETTINGS payload (length already validated to
// be a multiple of 6 by the frame codec) and applies each identifier to s,
// last-one-wins on duplicates per RFC 7540 section 6.5. Unknown identifiers
// are ignored. Returns which, if any, fields changed so callers can fan out
// side effects (e.g. INITIAL_WINDOW_SIZE changes adjusting open streams).
func (s *Settings) applySettingsFrame(payload []byte) (changed settingsDelta, err error) {
	for len(payload) >= 6 {
		id := settingID(uint16(payload[0])<<8 | uint16(payload[1]))
		value := uint32(payload[2])<<24 | uint32(payload[3])<<16 | uint32(payload[4])<<8 | uint32(payload[5])
		payload = payload[6:]
		switch id {
		case settingHeaderTableSize:
			s.HeaderTableSize = value
		case settingEnablePush:
			if value > 1 {
				return changed, connErrorf(ErrCodeProtocol, "invalid ENABLE_PUSH value %d", value)
			}
			s.EnablePush = value == 1
		case settingMaxConcurrentStreams:
			s.MaxConcurrentStreams = value
		case settingInitialWindowSize:
			if value > maxWindowSize {
				return changed, connErrorf(ErrCodeFlowControl, "invalid INITIAL_WINDOW_SIZE value %d", value)
			}
			changed.initialWindowOld = s.InitialWindowSize
			changed.initialWindowChanged = true
			s.InitialWindowSize = value
		case settingMaxFrameSize:
			if value < maxFrameSizeFloor || value > maxFrameSizeCeil {
				return changed, connErrorf(ErrCodeProtocol, "invalid MAX_FRAME_SIZE value %d", value)
			}
			s.MaxFrameSize = value
		case settingMaxHeaderListSize:
			s.MaxHeaderListSize = value
		default:
			// unknown identifiers are ignored, RFC 7540 section 6.5.2
		}
	}
	if len(payload) != 0 {
		return changed, connErrorf(ErrCodeFrameSize, "settings payload not a multiple of 6")
	}
	return changed, nil
}

// settingsDelta reports which settings effects the caller must fan out
// after applySettingsFrame returns.
type settingsDelta struct {
	initialWindowChanged bool
	initialWindowOld     uint32
}
