// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import (
	"log"
	"os"
)

// Logger receives diagnostic events from a Connection: frame receipt,
// settings changes, GOAWAY, stream transitions. Grounded on the teacher's
// package-level Printf/Println/BugExitln functions (hexinfra-gorox
// hemi/common.go); generalized into an injectable interface since this is a
// library embedded into a caller's process rather than a standalone server
// that owns its own log destination.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// noopLogger discards everything; the default when Options.Logger is nil.
type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}

// StdLogger adapts the standard library's *log.Logger to the Logger
// interface, for callers that just want lines on stderr.
type StdLogger struct {
	*log.Logger
}

// NewStdLogger returns a StdLogger writing to os.Stderr with a "h2wire: "
// prefix, the same destination and style the teacher's own Printf helpers
// write to.
func NewStdLogger() StdLogger {
	return StdLogger{log.New(os.Stderr, "h2wire: ", log.LstdFlags)}
}

func (l StdLogger) Debugf(format string, args ...any) { l.Printf("DEBUG "+format, args...) }
func (l StdLogger) Infof(format string, args ...any)  { l.Printf("INFO "+format, args...) }
func (l StdLogger) Warnf(format string, args ...any)  { l.Printf("WARN "+format, args...) }
