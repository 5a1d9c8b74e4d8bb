// Package sonify turns PCM samples into MIDI notes: every sample becomes a
// one tick note whose velocity follows the sample's amplitude.
package sonify

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/QEStudios/PCMToMidi/smf"
)

const numVoices = 4

// Scale applied to |sample| before the square root so that full scale (32768) maps to velocity 127.
const velocityScale = 127.0 * 127.0 / 32768.0

// Progress is reported roughly every 1/progressSteps of the input.
const progressSteps = 20

var (
	ErrUnsupportedChannelLayout = errors.New("unsupported channel layout: not mono or stereo")
	ErrChannelLengthMismatch    = errors.New("channels have different lengths")
	ErrSampleRate               = errors.New("sample rate out of range")
)

// ProgressObserver receives progress updates while samples are mapped.
// done counts samples processed across all channels, out of total.
type ProgressObserver interface {
	Progress(done, total int)
}

// ProgressFunc adapts a plain function to a ProgressObserver.
type ProgressFunc func(done, total int)

func (f ProgressFunc) Progress(done, total int) {
	f(done, total)
}

// Voice identifies one of the four output tracks: 2*isRightChannel + polarity.
type Voice int

// VoiceFor returns the voice a sample on the given channel is routed to.
func VoiceFor(channel int, sample int16) Voice {
	v := Voice(0)
	if sample < 0 {
		v = 1
	}
	if channel == 1 {
		v += 2
	}
	return v
}

// IsRight reports whether the voice belongs to the right channel.
func (v Voice) IsRight() bool {
	return v >= 2
}

// Polarity is 0 for voices of non-negative samples and 1 for negative ones.
func (v Voice) Polarity() int {
	return int(v) & 1
}

func (v Voice) String() string {
	side := "Left"
	if v.IsRight() {
		side = "Right"
	}
	sign := "+"
	if v.Polarity() == 1 {
		sign = "-"
	}
	return fmt.Sprintf("Voice %d (%s %s)", int(v), side, sign)
}

// Velocity maps a sample amplitude to a note velocity in [0, 127]:
// round(sqrt(|sample| * 127^2 / 32768)).
func Velocity(sample int16) uint8 {
	amplitude := math.Abs(float64(sample))
	return uint8(math.Floor(math.Sqrt(amplitude*velocityScale) + 0.5))
}

// VoiceNames returns display names for the tracks produced from the given number of channels.
func VoiceNames(numChannels int) []string {
	names := make([]string, 0, numVoices)
	for v := Voice(0); v < Voice(2*numChannels) && v < numVoices; v++ {
		names = append(names, v.String())
	}
	return names
}

// Mapper writes one short note per non-silent sample into an smf.Writer.
type Mapper struct {
	cfg      Config
	logger   *log.Logger
	observer ProgressObserver
}

// NewMapper creates a mapper. A nil logger falls back to log.Default and a nil observer disables progress reporting.
func NewMapper(cfg Config, logger *log.Logger, observer ProgressObserver) *Mapper {
	if logger == nil {
		logger = log.Default()
	}
	return &Mapper{
		cfg:      cfg,
		logger:   logger,
		observer: observer,
	}
}

// checkInput validates the input before anything is written.
func checkInput(channels [][]int16, sampleRate int) error {
	if len(channels) != 1 && len(channels) != 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedChannelLayout, len(channels))
	}
	for i := 1; i < len(channels); i++ {
		if len(channels[i]) != len(channels[0]) {
			return fmt.Errorf("%w: channel 0 has %d samples, channel %d has %d",
				ErrChannelLengthMismatch, len(channels[0]), i, len(channels[i]))
		}
	}
	if ppqn := sampleRate / 100; ppqn < 1 || ppqn > math.MaxInt16 {
		return fmt.Errorf("%w: %d Hz gives %d ticks per quarter note", ErrSampleRate, sampleRate, ppqn)
	}
	return nil
}

// setup writes the tempo, program and pan events at time 0.
func (m *Mapper) setup(w *smf.Writer, numChannels int, sampleRate int) error {
	// With a tempo of 10000us per quarter note this makes one tick equal one sample period.
	if err := w.SetPPQN(uint16(sampleRate / 100)); err != nil {
		return err
	}
	if err := w.Push(0, 0, smf.SetTempo(m.cfg.Tempo)); err != nil {
		return err
	}

	voices := Voice(2 * numChannels)
	for v := Voice(0); v < voices; v++ {
		if err := w.Push(int(v), 0, smf.ProgramChange(uint8(v), m.cfg.program(v))); err != nil {
			return err
		}
	}
	for v := Voice(0); v < voices; v++ {
		if err := w.Push(int(v), 0, smf.ControlChange(uint8(v), m.cfg.PanController, m.cfg.pan(v))); err != nil {
			return err
		}
	}
	return nil
}

// Map converts the channels (1 for mono, 2 for stereo, equal lengths) into notes on w.
// It returns the number of notes written.
func (m *Mapper) Map(w *smf.Writer, channels [][]int16, sampleRate int) (uint64, error) {
	if err := m.cfg.Validate(); err != nil {
		return 0, fmt.Errorf("invalid config: %w", err)
	}
	if err := checkInput(channels, sampleRate); err != nil {
		return 0, err
	}
	if err := m.setup(w, len(channels), sampleRate); err != nil {
		return 0, err
	}

	numSamples := len(channels[0])
	total := numSamples * len(channels)
	step := max(1, total/progressSteps)
	done := 0

	m.logger.Printf("Mapping %d samples on %d channel(s), %d ticks per quarter note", numSamples, len(channels), w.PPQN())

	var noteCount uint64
	for ch, samples := range channels {
		// Ticks since each voice last emitted a note. Every channel starts its own clock.
		var deltas [numVoices]uint64

		for _, sample := range samples {
			velocity := Velocity(sample)
			voice := VoiceFor(ch, sample)

			if velocity != 0 {
				noteOn := smf.NoteOn(uint8(voice), m.cfg.Pitch, velocity)
				noteOff := smf.NoteOff(uint8(voice), m.cfg.Pitch, velocity)
				if err := w.Push(int(voice), deltas[voice], noteOn); err != nil {
					return noteCount, err
				}
				// The note lasts exactly one tick.
				if err := w.Push(int(voice), 1, noteOff); err != nil {
					return noteCount, err
				}
				noteCount++
			}

			for v := range deltas {
				deltas[v]++
			}
			if velocity != 0 {
				deltas[voice] = 0
			}

			done++
			if m.observer != nil && (done%step == 0 || done == total) {
				m.observer.Progress(done, total)
			}
		}
	}

	for i := 0; i < w.Tracks().Len(); i++ {
		if err := w.Push(i, 0, smf.EndOfTrack()); err != nil {
			return noteCount, err
		}
	}

	m.logger.Printf("Mapped %d notes", noteCount)
	return noteCount, nil
}
