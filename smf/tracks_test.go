package smf

import (
	"bytes"
	"strings"
	"testing"
)

func TestTrackSetGrowsOnDemand(t *testing.T) {
	var s TrackSet
	if err := s.Push(2, 0, NoteOn(2, 60, 1)); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	for i := 0; i < 2; i++ {
		if len(s.Track(i)) != 0 {
			t.Errorf("gap track %d is not empty: % x", i, s.Track(i))
		}
	}

	// Growing to an existing index changes nothing.
	if err := s.EnsureTrack(1); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 {
		t.Errorf("EnsureTrack(1) changed Len to %d", s.Len())
	}
	if s.Track(5) != nil {
		t.Errorf("Track(5) on a 3 track set returned data")
	}
}

func TestTrackSetKeepsCallOrder(t *testing.T) {
	var s TrackSet
	s.Push(0, 0, NoteOn(0, 60, 7))
	s.Push(1, 1, NoteOn(1, 60, 5))
	s.Push(0, 1, NoteOff(0, 60, 7))
	// No reordering: a zero delta after a later event is kept as is.
	s.Push(0, 0, EndOfTrack())

	want := []byte{
		0x00, 0x90, 0x3c, 0x07,
		0x01, 0x80, 0x3c, 0x07,
		0x00, 0xff, 0x2f, 0x00,
	}
	if !bytes.Equal(s.Track(0), want) {
		t.Errorf("track 0 = % x, want % x", s.Track(0), want)
	}
	if got := s.EventCount(0, NoteOnEvent); got != 1 {
		t.Errorf("EventCount(0, NoteOn) = %d, want 1", got)
	}
	if got := s.EventCount(1, NoteOnEvent); got != 1 {
		t.Errorf("EventCount(1, NoteOn) = %d, want 1", got)
	}
	if got := s.EventCount(0, EndOfTrackEvent); got != 1 {
		t.Errorf("EventCount(0, EndOfTrack) = %d, want 1", got)
	}
}

func TestWriterSummary(t *testing.T) {
	w := NewWriter()
	w.Push(0, 0, NoteOn(0, 60, 7))
	w.Push(1, 0, NoteOn(1, 60, 7))
	w.Push(1, 1, NoteOn(1, 60, 7))

	summary := w.Summary([]string{"Left +"})
	t.Logf("\n%s", summary)
	for _, want := range []string{"Left +", "Track 1", "Note on: 2", "Ticks per quarter note: 480"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary is missing %q", want)
		}
	}
}
