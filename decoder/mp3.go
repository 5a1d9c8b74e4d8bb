package decoder

import (
	"encoding/binary"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

// go-mp3 always produces interleaved stereo signed 16-bit little endian samples.
const (
	mp3Channels       = 2
	mp3BytesPerSample = 2
)

func (d *Decoder) decodeMP3() (*PCM, error) {
	dec, err := mp3.NewDecoder(d.r)
	if err != nil {
		return nil, errors.Wrap(err, "opening MP3 stream")
	}

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(err, "decoding MP3 frames")
	}
	if rest := len(data) % mp3BytesPerSample; rest != 0 {
		d.addWarning("dropping %d trailing byte(s) of an incomplete sample", rest)
		data = data[:len(data)-rest]
	}
	d.info.BitDepth = 16

	samples := make([]int16, len(data)/mp3BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*mp3BytesPerSample:]))
	}

	return &PCM{
		SampleRate: dec.SampleRate(),
		Channels:   d.deinterleave(samples, mp3Channels),
	}, nil
}
