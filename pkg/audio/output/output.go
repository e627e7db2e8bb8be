// ABOUTME: Audio output interface definition
// ABOUTME: Common pull-model interface for audio playback backends
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

// Source supplies interleaved samples to a backend. Read fills samples
// completely (zero-padding where nothing is sounding) and returns the
// number of samples that carried audio.
type Source interface {
	Read(samples []int32) int
}

// Output represents an audio output device that pulls from a Source
type Output interface {
	// Open initializes the device and starts pulling from src
	Open(format audio.Format, src Source) error

	// Close stops pulling and releases output resources
	Close() error
}

// Backend names accepted by New
const (
	BackendOto   = "oto"
	BackendMalgo = "malgo"
	BackendNull  = "null"
)

// New returns the output backend with the given name
func New(name string) (Output, error) {
	switch name {
	case BackendOto, "":
		return NewOto(), nil
	case BackendMalgo:
		return NewMalgo(), nil
	case BackendNull:
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s", name)
	}
}
