// ABOUTME: Raw PCM audio decoder
// ABOUTME: Decodes little-endian integer and float PCM to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

// PCMDecoder decodes raw PCM bytes described by a Format
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder. Codec "pcm" accepts 8, 16, 24 and 32-bit
// integer samples; codec "pcm_float" accepts 32-bit IEEE float samples.
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	switch format.Codec {
	case "pcm":
		switch format.BitDepth {
		case 8, 16, 24, 32:
		default:
			return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24, 32)", format.BitDepth)
		}
	case "pcm_float":
		if format.BitDepth != 32 {
			return nil, fmt.Errorf("unsupported float bit depth: %d (supported: 32)", format.BitDepth)
		}
	default:
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid PCM layout: %d channels at %dHz", format.Channels, format.SampleRate)
	}

	return &PCMDecoder{format: format}, nil
}

// Decode converts PCM bytes to int32 samples. A trailing partial frame is dropped.
func (d *PCMDecoder) Decode(data []byte) (*audio.Buffer, error) {
	width := d.format.BitDepth / 8
	frameBytes := width * d.format.Channels
	numSamples := (len(data) / frameBytes) * d.format.Channels

	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		b := data[i*width:]
		switch {
		case d.format.Codec == "pcm_float":
			f := math.Float32frombits(binary.LittleEndian.Uint32(b))
			samples[i] = audio.SampleFromFloat(f)
		case width == 1:
			// 8-bit WAV data is unsigned
			samples[i] = (int32(b[0]) - 128) << 16
		case width == 2:
			samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(b)))
		case width == 3:
			samples[i] = audio.SampleFrom24Bit([3]byte{b[0], b[1], b[2]})
		default:
			samples[i] = int32(binary.LittleEndian.Uint32(b)) >> 8
		}
	}

	return &audio.Buffer{Samples: samples, Format: d.format}, nil
}
