package smf

import (
	"fmt"
)

const (
	maxChannel  = (1 << 4) - 1
	maxDataByte = (1 << 7) - 1
	maxTempo    = (1 << 24) - 1
)

type EventType int

const (
	NoteOnEvent        EventType = iota // Start a note on a channel.
	NoteOffEvent                        // Release a note on a channel.
	ProgramChangeEvent                  // Select the instrument of a channel.
	ControlChangeEvent                  // Set a controller value (e.g. pan) on a channel.
	SetTempoEvent                       // Meta event: microseconds per quarter note.
	EndOfTrackEvent                     // Meta event: mandatory last event of a track.
)

func (t EventType) String() string {
	switch t {
	case NoteOnEvent:
		return "Note on"
	case NoteOffEvent:
		return "Note off"
	case ProgramChangeEvent:
		return "Program"
	case ControlChangeEvent:
		return "Control"
	case SetTempoEvent:
		return "Tempo"
	case EndOfTrackEvent:
		return "End of track"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// A single MIDI event, without its delta-time.
// Events are built with the constructor functions below and are immutable afterwards.
type Event struct {
	eventType EventType

	channel uint8  // For channel messages: the MIDI channel (4-bit).
	data1   uint8  // Key, program or controller number (7-bit).
	data2   uint8  // Velocity or controller value (7-bit).
	tempo   uint32 // For Type SetTempo: microseconds per quarter note (24-bit).
}

// NoteOn returns a note-on event.
func NoteOn(channel, key, velocity uint8) Event {
	return Event{eventType: NoteOnEvent, channel: channel, data1: key, data2: velocity}
}

// NoteOff returns a note-off event. The release velocity is written as given.
func NoteOff(channel, key, velocity uint8) Event {
	return Event{eventType: NoteOffEvent, channel: channel, data1: key, data2: velocity}
}

// ProgramChange returns a program change event.
func ProgramChange(channel, program uint8) Event {
	return Event{eventType: ProgramChangeEvent, channel: channel, data1: program}
}

// ControlChange returns a control change event.
func ControlChange(channel, controller, value uint8) Event {
	return Event{eventType: ControlChangeEvent, channel: channel, data1: controller, data2: value}
}

// SetTempo returns a tempo meta event.
func SetTempo(microsPerQuarter uint32) Event {
	return Event{eventType: SetTempoEvent, tempo: microsPerQuarter}
}

// EndOfTrack returns the end-of-track meta event.
func EndOfTrack() Event {
	return Event{eventType: EndOfTrackEvent}
}

func (e Event) Type() EventType {
	return e.eventType
}

// Validate checks that every field of the event fits its wire encoding.
func (e Event) Validate() error {
	switch e.eventType {
	case NoteOnEvent, NoteOffEvent, ControlChangeEvent:
		if e.data2 > maxDataByte {
			return fmt.Errorf("%v: second data byte must be 0-%d, got %d", e.eventType, maxDataByte, e.data2)
		}
		fallthrough
	case ProgramChangeEvent:
		if e.channel > maxChannel {
			return fmt.Errorf("%v: channel must be 0-%d, got %d", e.eventType, maxChannel, e.channel)
		}
		if e.data1 > maxDataByte {
			return fmt.Errorf("%v: first data byte must be 0-%d, got %d", e.eventType, maxDataByte, e.data1)
		}
	case SetTempoEvent:
		if e.tempo > maxTempo {
			return fmt.Errorf("tempo must be 0-%d, got %d", maxTempo, e.tempo)
		}
	case EndOfTrackEvent:
	default:
		return fmt.Errorf("unknown event type %d", int(e.eventType))
	}
	return nil
}

// Size returns the number of bytes Bytes will produce.
func (e Event) Size() int {
	switch e.eventType {
	case NoteOnEvent, NoteOffEvent, ControlChangeEvent:
		return 3
	case ProgramChangeEvent:
		return 2
	case SetTempoEvent:
		return 6
	case EndOfTrackEvent:
		return 3
	default:
		return 0
	}
}

// Bytes converts the event into the bytes written to a track chunk.
// Running status is never used, every channel message carries its status byte.
func (e Event) Bytes() []byte {
	switch e.eventType {
	case NoteOnEvent:
		return []byte{0x90 | e.channel&0x0f, e.data1 & 0x7f, e.data2 & 0x7f}

	case NoteOffEvent:
		return []byte{0x80 | e.channel&0x0f, e.data1 & 0x7f, e.data2 & 0x7f}

	case ProgramChangeEvent:
		return []byte{0xc0 | e.channel&0x0f, e.data1 & 0x7f}

	case ControlChangeEvent:
		return []byte{0xb0 | e.channel&0x0f, e.data1 & 0x7f, e.data2 & 0x7f}

	case SetTempoEvent:
		// Meta event 0x51 with a 3 byte big endian payload.
		return []byte{
			0xff, 0x51, 0x03,
			byte(e.tempo >> 16),
			byte(e.tempo >> 8),
			byte(e.tempo),
		}

	case EndOfTrackEvent:
		return []byte{0xff, 0x2f, 0x00}

	default:
		panic(fmt.Sprintf("unhandled event type %d", e.eventType))
	}
}

func (e Event) String() string {
	switch e.eventType {
	case NoteOnEvent, NoteOffEvent:
		return fmt.Sprintf("%v ch%d key %d vel %d", e.eventType, e.channel, e.data1, e.data2)
	case ProgramChangeEvent:
		return fmt.Sprintf("Program ch%d -> %d", e.channel, e.data1)
	case ControlChangeEvent:
		return fmt.Sprintf("CC%d ch%d = %d", e.data1, e.channel, e.data2)
	case SetTempoEvent:
		return fmt.Sprintf("Tempo %d us/qn", e.tempo)
	case EndOfTrackEvent:
		return "End of track"
	default:
		return ""
	}
}
