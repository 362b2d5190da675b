// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import "fmt"

// ErrorCode is one of the RFC 7540 section 7 error codes carried on
// RST_STREAM and GOAWAY frames.
//
// Grounded on the teacher's http2Error/http2CodeXXX constants
// (hexinfra-gorox hemi/web_proto_http2.go), which name the same fourteen
// values; generalized into its own type with a String method instead of
// the teacher's plain untyped int constants. ErrorCode is not itself an
// error: callers read it from the Code field of a *ConnError or
// *StreamError obtained with errors.As.
type ErrorCode uint32

const (
	ErrCodeNoError            ErrorCode = 0x0
	ErrCodeProtocol           ErrorCode = 0x1
	ErrCodeInternal           ErrorCode = 0x2
	ErrCodeFlowControl        ErrorCode = 0x3
	ErrCodeSettingsTimeout    ErrorCode = 0x4
	ErrCodeStreamClosed       ErrorCode = 0x5
	ErrCodeFrameSize          ErrorCode = 0x6
	ErrCodeRefusedStream      ErrorCode = 0x7
	ErrCodeCancel             ErrorCode = 0x8
	ErrCodeCompression        ErrorCode = 0x9
	ErrCodeConnect            ErrorCode = 0xa
	ErrCodeEnhanceYourCalm    ErrorCode = 0xb
	ErrCodeInadequateSecurity ErrorCode = 0xc
	ErrCodeHTTP11Required     ErrorCode = 0xd
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNoError:
		return "NO_ERROR"
	case ErrCodeProtocol:
		return "PROTOCOL_ERROR"
	case ErrCodeInternal:
		return "INTERNAL_ERROR"
	case ErrCodeFlowControl:
		return "FLOW_CONTROL_ERROR"
	case ErrCodeSettingsTimeout:
		return "SETTINGS_TIMEOUT"
	case ErrCodeStreamClosed:
		return "STREAM_CLOSED"
	case ErrCodeFrameSize:
		return "FRAME_SIZE_ERROR"
	case ErrCodeRefusedStream:
		return "REFUSED_STREAM"
	case ErrCodeCancel:
		return "CANCEL"
	case ErrCodeCompression:
		return "COMPRESSION_ERROR"
	case ErrCodeConnect:
		return "CONNECT_ERROR"
	case ErrCodeEnhanceYourCalm:
		return "ENHANCE_YOUR_CALM"
	case ErrCodeInadequateSecurity:
		return "INADEQUATE_SECURITY"
	case ErrCodeHTTP11Required:
		return "HTTP_1_1_REQUIRED"
	default:
		return fmt.Sprintf("ERROR_CODE(%#x)", uint32(c))
	}
}

// ConnError is a connection-scope fault: the connection responds with
// GOAWAY carrying Code and closes once the writer drains.
type ConnError struct {
	Code  ErrorCode
	Debug string
	Cause error // underlying transport or framing error, if any
}

func (e *ConnError) Error() string {
	if e.Debug != "" {
		return fmt.Sprintf("h2wire: connection error %s: %s", e.Code, e.Debug)
	}
	return fmt.Sprintf("h2wire: connection error %s", e.Code)
}

func (e *ConnError) Unwrap() error { return e.Cause }

// StreamError is a stream-scope fault: only the named stream is reset with
// RST_STREAM carrying Code; the connection continues.
type StreamError struct {
	StreamID uint32
	Code     ErrorCode
	Cause    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("h2wire: stream %d error %s", e.StreamID, e.Code)
}

func (e *StreamError) Unwrap() error { return e.Cause }

// connErrorf and streamErrorf build the two fault types with an fmt-style
// debug message, the shape the teacher's own error constructors use
// (hemi's http2Error wraps a code with a fixed string; these add
// formatting since the engine's call sites need to name offending values).
func connErrorf(code ErrorCode, format string, args ...any) *ConnError {
	return &ConnError{Code: code, Debug: fmt.Sprintf(format, args...)}
}

func streamErrorf(streamID uint32, code ErrorCode, format string, args ...any) *StreamError {
	return &StreamError{StreamID: streamID, Code: code, Cause: fmt.Errorf(format, args...)}
}
