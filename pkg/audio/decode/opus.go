// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes a complete Ogg Opus payload to int32 samples at 48kHz
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48kHz
const opusSampleRate = 48000

// 120ms at 48kHz, the largest Opus frame
const opusMaxFrame = 5760

// OpusDecoder decodes Ogg-encapsulated Opus audio
type OpusDecoder struct{}

// NewOpus creates a new Opus decoder
func NewOpus() *OpusDecoder {
	return &OpusDecoder{}
}

// Decode converts Ogg Opus bytes to int32 samples
func (d *OpusDecoder) Decode(data []byte) (*audio.Buffer, error) {
	channels := opusHeadChannels(data)
	if channels == 0 {
		return nil, errors.New("opus payload has no OpusHead header")
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	pcm16 := make([]int16, opusMaxFrame*channels)
	var samples []int32
	for {
		// n is samples per channel
		n, err := stream.Read(pcm16)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}
		for i := 0; i < n*channels; i++ {
			samples = append(samples, audio.SampleFromInt16(pcm16[i]))
		}
	}

	if len(samples) == 0 {
		return nil, errors.New("opus payload has no audio frames")
	}

	return &audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      CodecOpus,
			SampleRate: opusSampleRate,
			Channels:   channels,
			BitDepth:   16,
		},
	}, nil
}

// opusHeadChannels reads the channel count from the OpusHead identification
// header: 8-byte magic, 1-byte version, 1-byte channel count.
func opusHeadChannels(data []byte) int {
	idx := bytes.Index(data, []byte("OpusHead"))
	if idx < 0 || idx+9 >= len(data) {
		return 0
	}
	return int(data[idx+9])
}
