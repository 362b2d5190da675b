// Copyright (c) 2026 h2wire authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h2wire

import "testing"

func TestSettingsValidateRejectsBadFrameSize(t *testing.T) {
	s := DefaultSettings()
	s.MaxFrameSize = maxFrameSizeFloor - 1
	if err := s.Validate(); err == nil {
		t.Fatal("Validate accepted a MAX_FRAME_SIZE below the floor")
	}
	s.MaxFrameSize = maxFrameSizeCeil + 1
	if err := s.Validate(); err == nil {
		t.Fatal("Validate accepted a MAX_FRAME_SIZE above the ceiling")
	}
}

func TestSettingsValidateRejectsOversizedWindow(t *testing.T) {
	s := DefaultSettings()
	s.InitialWindowSize = maxWindowSize + 1
	if err := s.Validate(); err == nil {
		t.Fatal("Validate accepted an oversized INITIAL_WINDOW_SIZE")
	}
}

func TestSettingsEncodeDecodeRoundTrip(t *testing.T) {
	want := Settings{
		HeaderTableSize:      8192,
		EnablePush:           false,
		MaxConcurrentStreams: 50,
		InitialWindowSize:    1 << 20,
		MaxFrameSize:         32768,
		MaxHeaderListSize:    4096,
	}
	payload := want.encode(nil)

	var got Settings
	if _, err := got.applySettingsFrame(payload); err != nil {
		t.Fatalf("applySettingsFrame: %v", err)
	}
	if got != want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}

func TestSettingsApplyLastOneWinsOnDuplicate(t *testing.T) {
	var payload []byte
	payload = appendSetting(payload, settingMaxFrameSize, 20000)
	payload = appendSetting(payload, settingMaxFrameSize, 30000)

	var s Settings
	if _, err := s.applySettingsFrame(payload); err != nil {
		t.Fatalf("applySettingsFrame: %v", err)
	}
	if s.MaxFrameSize != 30000 {
		t.Fatalf("MaxFrameSize = %d, want 30000 (last one wins)", s.MaxFrameSize)
	}
}

func TestSettingsApplyReportsInitialWindowDelta(t *testing.T) {
	s := Settings{InitialWindowSize: 1000}
	payload := appendSetting(nil, settingInitialWindowSize, 4000)
	delta, err := s.applySettingsFrame(payload)
	if err != nil {
		t.Fatalf("applySettingsFrame: %v", err)
	}
	if !delta.initialWindowChanged || delta.initialWindowOld != 1000 {
		t.Fatalf("delta = %+v, want changed with old=1000", delta)
	}
	if s.InitialWindowSize != 4000 {
		t.Fatalf("InitialWindowSize = %d, want 4000", s.InitialWindowSize)
	}
}

func TestSettingsApplyRejectsMalformedLength(t *testing.T) {
	var s Settings
	if _, err := s.applySettingsFrame([]byte{0x00, 0x01, 0x00}); err == nil {
		t.Fatal("applySettingsFrame accepted a payload not a multiple of 6")
	}
}

func TestSettingsApplyRejectsBadEnablePush(t *testing.T) {
	var s Settings
	payload := appendSetting(nil, settingEnablePush, 2)
	if _, err := s.applySettingsFrame(payload); err == nil {
		t.Fatal("applySettingsFrame accepted ENABLE_PUSH=2")
	}
}

func TestSettingsApplyIgnoresUnknownIdentifier(t *testing.T) {
	var s Settings
	payload := appendSetting(nil, settingID(0x99), 123)
	if _, err := s.applySettingsFrame(payload); err != nil {
		t.Fatalf("applySettingsFrame rejected an unknown identifier: %v", err)
	}
}
