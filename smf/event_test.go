package smf

import (
	"bytes"
	"testing"
)

func TestEventBytes(t *testing.T) {
	tests := []struct {
		event Event
		want  []byte
	}{
		{NoteOn(0, 60, 7), []byte{0x90, 0x3c, 0x07}},
		{NoteOn(3, 60, 127), []byte{0x93, 0x3c, 0x7f}},
		{NoteOff(1, 60, 5), []byte{0x81, 0x3c, 0x05}},
		{ProgramChange(1, 74), []byte{0xc1, 0x4a}},
		{ControlChange(2, 10, 127), []byte{0xb2, 0x0a, 0x7f}},
		{SetTempo(10000), []byte{0xff, 0x51, 0x03, 0x00, 0x27, 0x10}},
		{SetTempo(500000), []byte{0xff, 0x51, 0x03, 0x07, 0xa1, 0x20}},
		{EndOfTrack(), []byte{0xff, 0x2f, 0x00}},
	}
	for _, tt := range tests {
		if err := tt.event.Validate(); err != nil {
			t.Errorf("%v: unexpected validation error: %v", tt.event, err)
		}
		got := tt.event.Bytes()
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%v: Bytes() = % x, want % x", tt.event, got, tt.want)
		}
		if tt.event.Size() != len(tt.want) {
			t.Errorf("%v: Size() = %d, want %d", tt.event, tt.event.Size(), len(tt.want))
		}
	}
}

func TestEventValidate(t *testing.T) {
	invalid := []Event{
		NoteOn(16, 60, 100),
		NoteOn(0, 128, 100),
		NoteOff(0, 60, 200),
		ProgramChange(0, 128),
		ControlChange(0, 10, 128),
		SetTempo(1 << 24),
	}
	for _, e := range invalid {
		if err := e.Validate(); err == nil {
			t.Errorf("%v: expected a validation error", e)
		} else {
			t.Logf("Got expected error for %v: %s", e, err)
		}
	}
}
