package decoder

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

const (
	wavFormatPCM        = 0x0001
	wavFormatExtensible = 0xfffe

	// Frames decoded per PCMBuffer call.
	wavChunkFrames = 4096
)

// requantize converts a sample of the given bit depth to 16 bits.
// 8-bit WAV samples are unsigned, every other depth is signed.
func requantize(v int, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		return int16((v - 128) << 8)
	case bitDepth <= 16:
		return int16(v << (16 - bitDepth))
	default:
		return int16(v >> (bitDepth - 16))
	}
}

func (d *Decoder) decodeWAV() (*PCM, error) {
	dec := wav.NewDecoder(d.r)
	if !dec.IsValidFile() {
		return nil, errors.Wrap(ErrUnknownFormat, "invalid WAV file")
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "WAV format tag 0x%04x is not integer PCM", dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, errors.Wrap(err, "seeking to WAV data")
	}

	format := dec.Format()
	bitDepth := int(dec.SampleBitDepth())
	if bitDepth == 0 || bitDepth > 32 {
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "%d bits per sample", bitDepth)
	}
	if format.NumChannels < 1 {
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "%d channels", format.NumChannels)
	}
	if bitDepth != 16 {
		d.addWarning("requantizing %d-bit samples to 16 bits", bitDepth)
	}
	d.info.BitDepth = bitDepth

	bytesPerSample := (bitDepth-1)/8 + 1
	numSamples := int(dec.PCMLen()) / bytesPerSample
	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, wavChunkFrames*format.NumChannels),
		SourceBitDepth: bitDepth,
	}
	samples := make([]int16, 0, numSamples)
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "decoding WAV samples")
		}
		if n <= 0 {
			break
		}
		for _, v := range buf.Data[:n] {
			samples = append(samples, requantize(v, bitDepth))
		}
	}
	if len(samples) < numSamples {
		d.addWarning("WAV data chunk declares %d samples but only %d could be read", numSamples, len(samples))
	}

	return &PCM{
		SampleRate: format.SampleRate,
		Channels:   d.deinterleave(samples, format.NumChannels),
	}, nil
}
