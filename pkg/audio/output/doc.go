// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the pull-model Output interface and its backends
// Package output provides audio playback backends that pull samples from a Source.
//
// Backends: oto (default, 16-bit), malgo (16/24/32-bit via miniaudio) and
// null (headless, drains the source in real time).
//
// Example:
//
//	out, err := output.New(output.BackendOto)
//	err = out.Open(audio.EngineFormat(48000), bus)
//	defer out.Close()
package output
