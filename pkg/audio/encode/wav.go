// ABOUTME: WAV file writer
// ABOUTME: Wraps PCM-encoded samples in a canonical RIFF/WAVE container
package encode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

// wavHeaderSize is the size of a canonical 44-byte PCM WAV header
const wavHeaderSize = 44

// wavChunkFrames bounds the scratch buffer used while writing sample data
const wavChunkFrames = 4096

// WriteWAV writes buf as an integer PCM WAV file at the given bit depth (16 or 24)
func WriteWAV(w io.Writer, buf *audio.Buffer, bitDepth int) error {
	if buf == nil || buf.Format.Channels <= 0 || buf.Format.SampleRate <= 0 {
		return fmt.Errorf("wav: invalid buffer")
	}

	enc, err := NewPCM(audio.Format{
		Codec:      "pcm",
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.Channels,
		BitDepth:   bitDepth,
	})
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	defer enc.Close()
	pcm := enc.(*PCMEncoder)

	channels := buf.Format.Channels
	samples := buf.Samples[:buf.Frames()*channels]
	width := bitDepth / 8
	dataSize := len(samples) * width

	header := make([]byte, wavHeaderSize)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+dataSize))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1)
	binary.LittleEndian.PutUint16(header[22:], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:], uint32(buf.Format.SampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(buf.Format.SampleRate*channels*width))
	binary.LittleEndian.PutUint16(header[32:], uint16(channels*width))
	binary.LittleEndian.PutUint16(header[34:], uint16(bitDepth))
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(dataSize))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("wav: failed to write header: %w", err)
	}

	chunk := make([]byte, wavChunkFrames*channels*width)
	for len(samples) > 0 {
		n := min(len(samples), wavChunkFrames*channels)
		pcm.encodeInto(chunk, samples[:n])
		if _, err := bw.Write(chunk[:n*width]); err != nil {
			return fmt.Errorf("wav: failed to write samples: %w", err)
		}
		samples = samples[n:]
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("wav: flush failed: %w", err)
	}
	return nil
}
