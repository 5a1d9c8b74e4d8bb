// Package decoder turns audio files into per-channel 16-bit PCM.
package decoder

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnknownFormat       = errors.New("unknown audio format")
	ErrUnsupportedEncoding = errors.New("unsupported audio encoding")
	ErrNoSamples           = errors.New("audio contains no samples")
	ErrDecoderUsed         = errors.New("decoder already used")
)

type Format int

const (
	FormatAuto Format = iota // Detect the container from its first bytes.
	FormatWAV
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatWAV:
		return "WAV"
	case FormatMP3:
		return "MP3"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extensions lists the file extensions FormatFromPath recognises.
var Extensions = []string{".wav", ".wave", ".mp3"}

// FormatFromPath guesses the format from a file extension, falling back to FormatAuto.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	default:
		return FormatAuto
	}
}

// PCM is decoded audio: one slice of samples per channel, all of the same length.
type PCM struct {
	SampleRate int
	Channels   [][]int16
}

// NumFrames returns the number of samples in each channel.
func (p *PCM) NumFrames() int {
	if len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

func (p *PCM) String() string {
	return fmt.Sprintf("PCM(sampleRate=%d channels=%d frames=%d)", p.SampleRate, len(p.Channels), p.NumFrames())
}

// Info describes the decoded stream, for diagnostics.
type Info struct {
	Format        Format
	SampleRate    int
	NumChannels   int
	BitDepth      int
	NumFrames     int
	DroppedFrames int
}

// Small struct for non-fatal warnings
type DecodeWarning struct {
	Message string
}

func (w DecodeWarning) String() string {
	return w.Message
}

type Decoder struct {
	r      io.ReadSeeker
	format Format
	logger *log.Logger

	info Info

	// Collect any warnings whilst decoding.
	warnings []DecodeWarning

	// Decoding can only be done once per Decoder.
	used bool
}

// NewDecoder creates a decoder reading from r. FormatAuto sniffs the container.
func NewDecoder(r io.ReadSeeker, format Format, logger *log.Logger) *Decoder {
	if logger == nil {
		logger = log.Default()
	}
	return &Decoder{
		r:      r,
		format: format,
		logger: logger,
	}
}

// addWarning adds to the list of warnings encountered when decoding.
func (d *Decoder) addWarning(format string, args ...any) {
	d.warnings = append(d.warnings, DecodeWarning{Message: fmt.Sprintf(format, args...)})
}

// Warnings returns the non-fatal problems found by Decode.
func (d *Decoder) Warnings() []DecodeWarning {
	return d.warnings
}

// Info returns details about the decoded stream. Only valid after Decode.
func (d *Decoder) Info() Info {
	return d.info
}

// sniff detects the container from the first bytes of the stream and rewinds it.
func (d *Decoder) sniff() (Format, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(d.r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return FormatAuto, ErrNoSamples
		}
		return FormatAuto, errors.Wrap(err, "reading file signature")
	}
	head = head[:n]
	if _, err := d.r.Seek(0, io.SeekStart); err != nil {
		return FormatAuto, errors.Wrap(err, "rewinding input")
	}

	switch {
	case len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV, nil
	case bytes.HasPrefix(head, []byte("ID3")):
		return FormatMP3, nil
	case len(head) >= 2 && head[0] == 0xff && head[1]&0xe0 == 0xe0:
		// MPEG audio frame sync.
		return FormatMP3, nil
	}
	return FormatAuto, errors.Wrapf(ErrUnknownFormat, "signature % x", head)
}

// Decode reads the whole stream into memory.
func (d *Decoder) Decode() (*PCM, error) {
	if d.used {
		return nil, ErrDecoderUsed
	}
	d.used = true

	format := d.format
	if format == FormatAuto {
		var err error
		if format, err = d.sniff(); err != nil {
			return nil, err
		}
	}
	d.info.Format = format

	var pcm *PCM
	var err error
	switch format {
	case FormatWAV:
		pcm, err = d.decodeWAV()
	case FormatMP3:
		pcm, err = d.decodeMP3()
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "format %v", format)
	}
	if err != nil {
		return nil, err
	}
	if pcm.NumFrames() == 0 {
		return nil, ErrNoSamples
	}

	d.info.SampleRate = pcm.SampleRate
	d.info.NumChannels = len(pcm.Channels)
	d.info.NumFrames = pcm.NumFrames()

	if len(d.warnings) > 0 {
		d.logger.Println("Warnings produced while decoding file:")
		for _, warning := range d.warnings {
			d.logger.Printf("%v\n", warning)
		}
	}
	d.logger.Printf("Decoded %v %s", format, pcm)

	return pcm, nil
}

// deinterleave splits interleaved frames into channels, dropping a trailing partial frame.
func (d *Decoder) deinterleave(samples []int16, numChannels int) [][]int16 {
	numFrames := len(samples) / numChannels
	if rest := len(samples) % numChannels; rest != 0 {
		d.info.DroppedFrames++
		d.addWarning("dropping %d sample(s) of an incomplete trailing frame", rest)
	}

	channels := make([][]int16, numChannels)
	for c := range channels {
		channels[c] = make([]int16, numFrames)
		for i := 0; i < numFrames; i++ {
			channels[c][i] = samples[i*numChannels+c]
		}
	}
	return channels
}
