// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the sample types shared by the decoders, the
// playback engine and the output backends.
//
// All PCM inside the engine is interleaved int32 in 24-bit range:
//   - Format: describes a sample layout (codec, sample rate, channels, bit depth)
//   - Buffer: an immutable block of decoded samples
//
// Example:
//
//	buf := &audio.Buffer{Samples: samples, Format: audio.EngineFormat(48000)}
//	seconds := buf.Duration()
package audio
