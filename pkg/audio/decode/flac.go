// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes a complete FLAC payload frame by frame to int32 samples
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() *FLACDecoder {
	return &FLACDecoder{}
}

// Decode converts FLAC bytes to int32 samples
func (d *FLACDecoder) Decode(data []byte) (*audio.Buffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels == 0 {
		return nil, errors.New("flac stream declares zero channels")
	}

	// NSamples comes from the header; the payload bounds what can really be there
	samples := make([]int32, 0, min(int(info.NSamples), len(data))*channels)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac frame error: %w", err)
		}

		if len(frame.Subframes) != channels {
			return nil, fmt.Errorf("flac frame has %d subframes, stream declares %d channels", len(frame.Subframes), channels)
		}
		blockSize := int(frame.BlockSize)
		for _, sub := range frame.Subframes {
			if len(sub.Samples) < blockSize {
				return nil, fmt.Errorf("flac subframe holds %d of %d samples", len(sub.Samples), blockSize)
			}
		}

		for i := 0; i < blockSize; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, scaleTo24(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	if len(samples) == 0 {
		return nil, errors.New("flac payload has no audio frames")
	}

	return &audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      CodecFLAC,
			SampleRate: int(info.SampleRate),
			Channels:   channels,
			BitDepth:   bitDepth,
		},
	}, nil
}

// scaleTo24 shifts a sample of the given bit depth into 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	shift := bitDepth - 24
	if shift > 0 {
		return sample >> shift
	}
	return sample << -shift
}
