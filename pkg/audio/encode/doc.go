// ABOUTME: Audio encoder package for encoding PCM samples
// ABOUTME: Provides the Encoder interface, a PCM encoder and a WAV writer
// Package encode provides PCM encoding for offline renders.
//
// All encoders accept int32 samples in 24-bit range.
//
// Example:
//
//	f, err := os.Create("mix.wav")
//	err = encode.WriteWAV(f, buf, 24)
package encode
