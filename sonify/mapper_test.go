package sonify

import (
	"bytes"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/QEStudios/PCMToMidi/smf"
	"github.com/davecgh/go-spew/spew"
	gomidi "gitlab.com/gomidi/midi/v2/smf"
)

var quietLogger = log.New(io.Discard, "", 0)

func mapSamples(t *testing.T, cfg Config, channels [][]int16, sampleRate int) (*smf.Writer, uint64) {
	t.Helper()
	w := smf.NewWriter()
	notes, err := NewMapper(cfg, quietLogger, nil).Map(w, channels, sampleRate)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	return w, notes
}

func TestVelocity(t *testing.T) {
	tests := []struct {
		sample int16
		want   uint8
	}{
		{0, 0},
		{1, 1},
		{-1, 1},
		{50, 5},
		{-50, 5},
		{100, 7},
		{32767, 127},
		{-32768, 127},
	}
	for _, tt := range tests {
		if got := Velocity(tt.sample); got != tt.want {
			t.Errorf("Velocity(%d) = %d, want %d", tt.sample, got, tt.want)
		}
	}
	for s := -32768; s <= 32767; s++ {
		if v := Velocity(int16(s)); v > 127 {
			t.Fatalf("Velocity(%d) = %d is out of range", s, v)
		}
	}
}

func TestVoiceFor(t *testing.T) {
	tests := []struct {
		channel int
		sample  int16
		want    Voice
	}{
		{0, 0, 0},
		{0, 1, 0},
		{0, -1, 1},
		{0, -32768, 1},
		{1, 32767, 2},
		{1, -1, 3},
	}
	for _, tt := range tests {
		if got := VoiceFor(tt.channel, tt.sample); got != tt.want {
			t.Errorf("VoiceFor(%d, %d) = %d, want %d", tt.channel, tt.sample, got, tt.want)
		}
	}
}

func TestMapMonoScenario(t *testing.T) {
	w, notes := mapSamples(t, DefaultConfig(), [][]int16{{100, -50, 0}}, 44100)
	if notes != 2 {
		t.Errorf("note count = %d, want 2", notes)
	}
	if w.PPQN() != 441 {
		t.Errorf("PPQN = %d, want 441", w.PPQN())
	}
	if w.Tracks().Len() != 2 {
		t.Fatalf("mono input produced %d tracks, want 2", w.Tracks().Len())
	}

	wantTracks := [][]byte{
		{
			0x00, 0xff, 0x51, 0x03, 0x00, 0x27, 0x10, // Tempo 10000us.
			0x00, 0xc0, 0x00, // Program 0.
			0x00, 0xb0, 0x0a, 0x01, // Pan hard left.
			0x00, 0x90, 0x3c, 0x07, // Sample 0 at tick 0.
			0x01, 0x80, 0x3c, 0x07,
			0x00, 0xff, 0x2f, 0x00,
		},
		{
			0x00, 0xc1, 0x4a, // Program 74.
			0x00, 0xb1, 0x0a, 0x01,
			0x01, 0x91, 0x3c, 0x05, // Sample 1 at tick 1.
			0x01, 0x81, 0x3c, 0x05,
			0x00, 0xff, 0x2f, 0x00,
		},
	}
	for i, want := range wantTracks {
		if got := w.Tracks().Track(i); !bytes.Equal(got, want) {
			t.Errorf("track %d =\n%s\nwant\n%s", i, spew.Sdump(got), spew.Sdump(want))
		}
	}
}

func TestMapSilentSamplesAdvanceClock(t *testing.T) {
	w, notes := mapSamples(t, DefaultConfig(), [][]int16{{0, 0, 0, 203, 0, 203}}, 8000)
	if notes != 2 {
		t.Fatalf("note count = %d, want 2", notes)
	}
	body := w.Tracks().Track(0)
	// Skip tempo, program and pan.
	notesPart := body[7+3+4:]
	want := []byte{
		0x03, 0x90, 0x3c, 0x0a, // First note after three silent samples.
		0x01, 0x80, 0x3c, 0x0a,
		0x01, 0x90, 0x3c, 0x0a, // One silent sample between the notes.
		0x01, 0x80, 0x3c, 0x0a,
		0x00, 0xff, 0x2f, 0x00,
	}
	if Velocity(203) != 0x0a {
		t.Fatalf("Velocity(203) = %d, test assumes 10", Velocity(203))
	}
	if !bytes.Equal(notesPart, want) {
		t.Errorf("note events = % x, want % x", notesPart, want)
	}
}

func TestMapStereoRouting(t *testing.T) {
	left := []int16{5000, 0}
	right := []int16{0, -5000}
	w, notes := mapSamples(t, DefaultConfig(), [][]int16{left, right}, 48000)
	if notes != 2 {
		t.Errorf("note count = %d, want 2", notes)
	}
	if w.Tracks().Len() != 4 {
		t.Fatalf("stereo input produced %d tracks, want 4", w.Tracks().Len())
	}
	for voice, want := range []int{1, 0, 0, 1} {
		if got := w.Tracks().EventCount(voice, smf.NoteOnEvent); got != want {
			t.Errorf("voice %d has %d notes, want %d", voice, got, want)
		}
		if got := w.Tracks().EventCount(voice, smf.EndOfTrackEvent); got != 1 {
			t.Errorf("voice %d has %d end of track events, want 1", voice, got)
		}
	}

	// The right channel restarts its clock: the note at index 1 has delta 1.
	track3 := w.Tracks().Track(3)
	want := []byte{0x01, 0x93, 0x3c}
	if !bytes.Contains(track3, want) {
		t.Errorf("track 3 = % x, missing % x", track3, want)
	}
	// Right voices are panned to 127.
	if !bytes.Contains(w.Tracks().Track(2), []byte{0x00, 0xb2, 0x0a, 0x7f}) {
		t.Errorf("track 2 = % x, missing pan right", w.Tracks().Track(2))
	}
}

func TestMapRejectsInput(t *testing.T) {
	tests := []struct {
		name       string
		channels   [][]int16
		sampleRate int
		want       error
	}{
		{"no channels", nil, 44100, ErrUnsupportedChannelLayout},
		{"three channels", [][]int16{{1}, {1}, {1}}, 44100, ErrUnsupportedChannelLayout},
		{"uneven channels", [][]int16{{1, 2}, {1}}, 44100, ErrChannelLengthMismatch},
		{"rate too low", [][]int16{{1}}, 99, ErrSampleRate},
		{"rate too high", [][]int16{{1}}, 3276800, ErrSampleRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := smf.NewWriter()
			_, err := NewMapper(DefaultConfig(), quietLogger, nil).Map(w, tt.channels, tt.sampleRate)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if w.Tracks().Len() != 0 || w.PPQN() != smf.DefaultPPQN {
				t.Errorf("writer was modified before the input was rejected")
			}
		})
	}
}

func TestMapProgress(t *testing.T) {
	samples := make([]int16, 100)
	var calls []int
	observer := ProgressFunc(func(done, total int) {
		if total != 200 {
			t.Errorf("total = %d, want 200", total)
		}
		calls = append(calls, done)
	})

	w := smf.NewWriter()
	if _, err := NewMapper(DefaultConfig(), quietLogger, observer).Map(w, [][]int16{samples, samples}, 44100); err != nil {
		t.Fatal(err)
	}
	if len(calls) != progressSteps {
		t.Fatalf("observer called %d times, want %d: %v", len(calls), progressSteps, calls)
	}
	if calls[len(calls)-1] != 200 {
		t.Errorf("last progress = %d, want 200", calls[len(calls)-1])
	}

	// Progress reporting never changes the output.
	quiet, _ := mapSamples(t, DefaultConfig(), [][]int16{samples, samples}, 44100)
	a, _ := w.Bytes()
	b, _ := quiet.Bytes()
	if !bytes.Equal(a, b) {
		t.Errorf("output differs with a progress observer")
	}
}

func TestMapCustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pitch = 72
	cfg.PositiveProgram = 19
	cfg.NegativeProgram = 20
	cfg.LeftPan = 32
	cfg.RightPan = 96
	cfg.Tempo = 20000

	w, _ := mapSamples(t, cfg, [][]int16{{-100}}, 44100)
	want := []byte{
		0x00, 0xc1, 0x14,
		0x00, 0xb1, 0x0a, 0x20,
		0x00, 0x91, 0x48, 0x07,
		0x01, 0x81, 0x48, 0x07,
		0x00, 0xff, 0x2f, 0x00,
	}
	if got := w.Tracks().Track(1); !bytes.Equal(got, want) {
		t.Errorf("track 1 = % x, want % x", got, want)
	}
	if !bytes.HasPrefix(w.Tracks().Track(0), []byte{0x00, 0xff, 0x51, 0x03, 0x00, 0x4e, 0x20}) {
		t.Errorf("track 0 does not start with the configured tempo: % x", w.Tracks().Track(0))
	}
}

func TestMapOutputReadableByGomidi(t *testing.T) {
	left := []int16{100, -200, 0, 32767, -32768}
	right := []int16{-1, 1, 0, 0, 300}
	w, notes := mapSamples(t, DefaultConfig(), [][]int16{left, right}, 44100)
	data, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := gomidi.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gomidi could not read the file: %v", err)
	}
	if len(parsed.Tracks) != 4 {
		t.Fatalf("gomidi found %d tracks, want 4", len(parsed.Tracks))
	}

	var noteOns uint64
	for _, track := range parsed.Tracks {
		for _, ev := range track {
			if b := ev.Message.Bytes(); len(b) == 3 && b[0]&0xf0 == 0x90 {
				noteOns++
			}
		}
	}
	if noteOns != notes {
		t.Errorf("gomidi counted %d note ons, mapper reported %d", noteOns, notes)
	}
}
