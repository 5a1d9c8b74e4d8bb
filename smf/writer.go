package smf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const DefaultPPQN = 480

const (
	headerChunkSize  = 14 // "MThd", length, format, track count, division.
	trackHeaderSize  = 8  // "MTrk", length.
	maxTracks        = (1 << 16) - 1
	maxPPQN          = (1 << 15) - 1 // The top bit of the division selects SMPTE timing.
	formatMultiTrack = 1
)

var (
	ErrSealed        = errors.New("writer already serialized")
	ErrInvalidPPQN   = errors.New("invalid ticks per quarter note")
	ErrTooManyTracks = errors.New("too many tracks for a MIDI file")
)

// Writer builds a format 1 Standard MIDI File in memory.
//
// Events are pushed per track, then the whole file is serialized at once.
// The first serialization seals the writer: afterwards pushes and PPQN
// changes fail with ErrSealed, while further serializations return the same bytes.
type Writer struct {
	ppqn   uint16
	tracks TrackSet
	sealed bool
}

func NewWriter() *Writer {
	return &Writer{ppqn: DefaultPPQN}
}

func (w *Writer) PPQN() uint16 {
	return w.ppqn
}

// SetPPQN sets the time division of the file in ticks per quarter note.
func (w *Writer) SetPPQN(ppqn uint16) error {
	if w.sealed {
		return ErrSealed
	}
	if ppqn == 0 || ppqn > maxPPQN {
		return fmt.Errorf("%w: must be 1-%d, got %d", ErrInvalidPPQN, maxPPQN, ppqn)
	}
	w.ppqn = ppqn
	return nil
}

// Tracks gives read access to the track buffers.
func (w *Writer) Tracks() *TrackSet {
	return &w.tracks
}

// EnsureTrack makes sure track i exists, creating empty tracks as needed.
func (w *Writer) EnsureTrack(i int) error {
	if w.sealed {
		return ErrSealed
	}
	return w.tracks.EnsureTrack(i)
}

// Push appends an event to track i, wait ticks after the previous event of that track.
func (w *Writer) Push(i int, wait uint64, e Event) error {
	if w.sealed {
		return ErrSealed
	}
	if err := w.tracks.Push(i, wait, e); err != nil {
		return fmt.Errorf("track %d: %w", i, err)
	}
	return nil
}

// CalculateSize returns the size in bytes of the serialized file.
func (w *Writer) CalculateSize() int {
	size := headerChunkSize
	for i := 0; i < w.tracks.Len(); i++ {
		size += trackHeaderSize + len(w.tracks.Track(i))
	}
	return size
}

// Bytes serializes the header chunk followed by every track chunk in index order.
func (w *Writer) Bytes() ([]byte, error) {
	if w.tracks.Len() > maxTracks {
		return nil, fmt.Errorf("%w: %d tracks, limit is %d", ErrTooManyTracks, w.tracks.Len(), maxTracks)
	}
	for i := 0; i < w.tracks.Len(); i++ {
		if uint64(len(w.tracks.Track(i))) > 0xffffffff {
			return nil, fmt.Errorf("track %d is too long for a chunk: %d bytes", i, len(w.tracks.Track(i)))
		}
	}
	w.sealed = true

	totalSize := w.CalculateSize()
	buffer := bytes.NewBuffer(make([]byte, 0, totalSize))

	buffer.WriteString("MThd")
	binary.Write(buffer, binary.BigEndian, []uint32{6})
	binary.Write(buffer, binary.BigEndian, []uint16{
		formatMultiTrack,
		uint16(w.tracks.Len()),
		w.ppqn,
	})

	for i := 0; i < w.tracks.Len(); i++ {
		track := w.tracks.Track(i)
		buffer.WriteString("MTrk")
		binary.Write(buffer, binary.BigEndian, uint32(len(track)))
		buffer.Write(track)
	}

	// Sanity check to make sure the output is the expected size.
	if buffer.Len() != totalSize {
		return nil, fmt.Errorf("MIDI file size mismatch: got %d bytes, expected %d", buffer.Len(), totalSize)
	}
	return buffer.Bytes(), nil
}

// WriteTo writes the serialized file to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	data, err := w.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := dst.Write(data)
	if err == nil && n != len(data) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// Save writes the file to path, replacing any existing file.
// A failed save may leave a truncated file behind; it is not removed.
func (w *Writer) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// summaryRows are the event types listed by String, in display order.
var summaryRows = []EventType{
	SetTempoEvent,
	ProgramChangeEvent,
	ControlChangeEvent,
	NoteOnEvent,
	NoteOffEvent,
	EndOfTrackEvent,
}

// formatTrackTable formats per-track event counts into a table with one column per track.
// headerNames: optional names for each track (if nil or empty entry, "Track i" is used).
// indent: number of spaces to indent the table
func formatTrackTable(s *TrackSet, headerNames []string, indent int) string {
	numTracks := s.Len()

	header := func(i int) string {
		if i < len(headerNames) && headerNames[i] != "" {
			return headerNames[i]
		}
		return fmt.Sprintf("Track %d", i)
	}
	cell := func(track int, t EventType) string {
		return fmt.Sprintf("%s: %d", t, s.EventCount(track, t))
	}
	padRight := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	widths := make([]int, numTracks)
	for i := 0; i < numTracks; i++ {
		widths[i] = len(header(i))
		for _, t := range summaryRows {
			widths[i] = max(widths[i], len(cell(i, t)))
		}
		widths[i] = max(widths[i], 16)
	}

	var b strings.Builder
	separator := func() {
		b.WriteString(strings.Repeat(" ", indent))
		for i := 0; i < numTracks; i++ {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", widths[i]+2)) // +2 for the space padding either side
		}
		b.WriteString("+\n")
	}
	row := func(text func(i int) string) {
		b.WriteString(strings.Repeat(" ", indent))
		for i := 0; i < numTracks; i++ {
			b.WriteString("| ")
			b.WriteString(padRight(text(i), widths[i]))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
	}

	separator()
	row(header)
	separator()
	for _, t := range summaryRows {
		row(func(i int) string { return cell(i, t) })
	}
	separator()

	return b.String()
}

// Pretty-print
func (w *Writer) String() string {
	return w.Summary(nil)
}

// Summary pretty-prints the file, labelling track columns with names where given.
func (w *Writer) Summary(trackNames []string) string {
	var b strings.Builder
	b.WriteString("Standard MIDI File:\n")
	fmt.Fprintf(&b, "- Format: %d\n", formatMultiTrack)
	fmt.Fprintf(&b, "- Ticks per quarter note: %d\n", w.ppqn)
	fmt.Fprintf(&b, "- Tracks: %d\n", w.tracks.Len())
	if w.tracks.Len() > 0 {
		b.WriteString(formatTrackTable(&w.tracks, trackNames, 2))
	}

	totalSize := w.CalculateSize()
	fmt.Fprintf(&b, "[Total file size: %d bytes]\n", totalSize)
	return b.String()
}
