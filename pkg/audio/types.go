// ABOUTME: Audio type definitions
// ABOUTME: Defines the engine sample format and immutable decoded buffers
package audio

import "math"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// DefaultSampleRate is the engine rate assets are normalized to
	DefaultSampleRate = 48000
)

// Format describes a PCM sample layout
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// EngineFormat returns the fixed format every decoded asset is converted to:
// interleaved stereo, 24-bit range int32 samples at the given rate.
func EngineFormat(sampleRate int) Format {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return Format{
		Codec:      "pcm",
		SampleRate: sampleRate,
		Channels:   2,
		BitDepth:   24,
	}
}

// Buffer holds decoded, interleaved PCM samples in 24-bit range.
// Buffers handed out by decoders and the asset cache are never mutated.
type Buffer struct {
	Samples []int32
	Format  Format
}

// Frames returns the number of sample frames (samples per channel)
func (b *Buffer) Frames() int {
	if b == nil || b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b == nil || b.Format.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Format.SampleRate)
}

// FrameAt converts a time offset in seconds to a frame index, clamped to
// [0, Frames()].
func (b *Buffer) FrameAt(seconds float64) int {
	if seconds <= 0 || b == nil {
		return 0
	}
	frame := int(math.Round(seconds * float64(b.Format.SampleRate)))
	if n := b.Frames(); frame > n {
		return n
	}
	return frame
}

// Clamp24 saturates a wide sample value to the 24-bit range
func Clamp24(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleFromFloat converts a normalized [-1, 1] float sample to 24-bit range
func SampleFromFloat(f float32) int32 {
	return Clamp24(int64(math.Round(float64(f) * Max24Bit)))
}
