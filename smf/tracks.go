package smf

import (
	"errors"
	"fmt"
)

var ErrTrackIndex = errors.New("track index out of range")

// TrackSet is an ordered, index addressed collection of track chunk bodies.
//
// Tracks are created on demand: pushing to index i creates every missing
// track up to and including i. Tracks created only to fill such a gap are
// valid empty tracks, not an error. Tracks are never removed.
type TrackSet struct {
	tracks [][]byte

	// Per-track number of events of each type, for String.
	counts []map[EventType]int
}

// Len returns the number of tracks, including empty ones.
func (s *TrackSet) Len() int {
	return len(s.tracks)
}

// Track returns the encoded body of track i. The slice must not be modified.
func (s *TrackSet) Track(i int) []byte {
	if i < 0 || i >= len(s.tracks) {
		return nil
	}
	return s.tracks[i]
}

// EventCount returns how many events of type t were pushed to track i.
func (s *TrackSet) EventCount(i int, t EventType) int {
	if i < 0 || i >= len(s.counts) {
		return 0
	}
	return s.counts[i][t]
}

// EnsureTrack appends empty tracks until index i exists.
func (s *TrackSet) EnsureTrack(i int) error {
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrTrackIndex, i)
	}
	for len(s.tracks) <= i {
		s.tracks = append(s.tracks, nil)
		s.counts = append(s.counts, make(map[EventType]int))
	}
	return nil
}

// Push appends wait (as a VLQ delta-time) followed by the event bytes to track i.
// Events are stored in call order; ordering and timing are the caller's responsibility.
func (s *TrackSet) Push(i int, wait uint64, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.EnsureTrack(i); err != nil {
		return err
	}
	s.tracks[i] = AppendVLQ(s.tracks[i], wait)
	s.tracks[i] = append(s.tracks[i], e.Bytes()...)
	s.counts[i][e.Type()]++
	return nil
}
