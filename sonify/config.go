package sonify

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

const (
	maxDataByte   = (1 << 7) - 1
	maxController = 119 // 120-127 are channel mode messages.
	maxTempo      = (1 << 24) - 1
)

// Config holds the instrument, pan and timing constants used by the Mapper.
type Config struct {
	// Key number of every note.
	Pitch uint8 `yaml:"pitch"`

	// Instruments of the voices of non-negative and negative samples.
	PositiveProgram uint8 `yaml:"positive_program"`
	NegativeProgram uint8 `yaml:"negative_program"`

	// Controller number used for panning (10 is the standard pan controller).
	PanController uint8 `yaml:"pan_controller"`
	// Pan values of mono/left voices and right voices.
	LeftPan  uint8 `yaml:"left_pan"`
	RightPan uint8 `yaml:"right_pan"`

	// Microseconds per quarter note. Together with ppqn = sampleRate/100,
	// 10000 makes one tick last exactly one sample period.
	Tempo uint32 `yaml:"tempo"`
}

// DefaultConfig returns the standard mapping: a piano for positive samples and a
// flute for negative ones, panned hard left/right, one tick per sample.
func DefaultConfig() Config {
	return Config{
		Pitch:           60,
		PositiveProgram: 0,
		NegativeProgram: 74,
		PanController:   10,
		LeftPan:         1,
		RightPan:        127,
		Tempo:           60000000 / 6000,
	}
}

// Validate checks that every value fits its MIDI encoding.
func (c Config) Validate() error {
	if c.Pitch > maxDataByte {
		return fmt.Errorf("pitch must be 0-%d, got %d", maxDataByte, c.Pitch)
	}
	if c.PositiveProgram > maxDataByte || c.NegativeProgram > maxDataByte {
		return fmt.Errorf("programs must be 0-%d, got %d and %d", maxDataByte, c.PositiveProgram, c.NegativeProgram)
	}
	if c.PanController > maxController {
		return fmt.Errorf("pan controller must be 0-%d, got %d", maxController, c.PanController)
	}
	if c.LeftPan > maxDataByte || c.RightPan > maxDataByte {
		return fmt.Errorf("pans must be 0-%d, got %d and %d", maxDataByte, c.LeftPan, c.RightPan)
	}
	if c.Tempo == 0 || c.Tempo > maxTempo {
		return fmt.Errorf("tempo must be 1-%d, got %d", maxTempo, c.Tempo)
	}
	return nil
}

// LoadConfig reads a YAML document on top of DefaultConfig.
// Keys that are not part of Config are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// program returns the instrument for a voice.
func (c Config) program(v Voice) uint8 {
	if v.Polarity() == 1 {
		return c.NegativeProgram
	}
	return c.PositiveProgram
}

// pan returns the pan value for a voice.
func (c Config) pan(v Voice) uint8 {
	if v.IsRight() {
		return c.RightPan
	}
	return c.LeftPan
}
