// ABOUTME: Audio decoder package for whole-asset decoding
// ABOUTME: Provides Decoder interface and implementations for WAV/PCM, MP3, FLAC, Opus
// Package decode turns a complete encoded audio payload into an audio.Buffer.
//
// Supports: WAV (PCM 8/16/24/32-bit and 32-bit float), MP3, FLAC, Ogg Opus.
//
// All decoders output int32 samples in 24-bit range. Normalize converts a
// decoded buffer to the engine's fixed channel count and sample rate.
//
// Example:
//
//	buf, err := decode.Decode(data, "audio/flac", "drums.flac")
//	buf, err = decode.Normalize(buf, audio.EngineFormat(48000))
package decode
