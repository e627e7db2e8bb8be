// ABOUTME: Conversion of decoded buffers to the engine format
// ABOUTME: Maps channel layouts to the target and resamples to the target rate
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio/resample"
)

// Normalize converts buf to target's channel count and sample rate.
// Mono sources are duplicated across channels; extra source channels are dropped.
func Normalize(buf *audio.Buffer, target audio.Format) (*audio.Buffer, error) {
	if buf == nil {
		return nil, fmt.Errorf("nil buffer")
	}
	if buf.Format.Channels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid source layout: %d channels at %dHz",
			buf.Format.Channels, buf.Format.SampleRate)
	}

	samples := remapChannels(buf.Samples, buf.Format.Channels, target.Channels)
	if buf.Format.SampleRate != target.SampleRate {
		r := resample.New(buf.Format.SampleRate, target.SampleRate, target.Channels)
		samples = r.Convert(samples)
	}

	return &audio.Buffer{
		Samples: samples,
		Format: audio.Format{
			Codec:      "pcm",
			SampleRate: target.SampleRate,
			Channels:   target.Channels,
			BitDepth:   24,
		},
	}, nil
}

func remapChannels(in []int32, from, to int) []int32 {
	if from == to {
		return in
	}

	frames := len(in) / from
	out := make([]int32, frames*to)
	for f := 0; f < frames; f++ {
		src := in[f*from : f*from+from]
		dst := out[f*to : f*to+to]
		for ch := range dst {
			switch {
			case from == 1:
				dst[ch] = src[0]
			case ch < from:
				dst[ch] = src[ch]
			}
		}
	}
	return out
}
