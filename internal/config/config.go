// ABOUTME: Runtime configuration for the DAW engine
// ABOUTME: Defaults come from DAW_* environment variables; flags override them
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/internal/asset"
	"github.com/Resonate-Protocol/resonate-daw/internal/control"
	"github.com/Resonate-Protocol/resonate-daw/internal/engine"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio/output"
)

// Environment variable names
const (
	EnvSampleRate         = "DAW_SAMPLE_RATE"
	EnvOutput             = "DAW_OUTPUT"
	EnvControlPort        = "DAW_CONTROL_PORT"
	EnvFetchTimeout       = "DAW_FETCH_TIMEOUT"
	EnvPreloadConcurrency = "DAW_PRELOAD_CONCURRENCY"
	EnvSeekPolicy         = "DAW_SEEK_POLICY"
	EnvMDNS               = "DAW_MDNS"
)

// Config holds engine settings
type Config struct {
	SampleRate         int
	Output             string
	ControlPort        int // 0 disables the control server
	FetchTimeout       time.Duration
	PreloadConcurrency int
	SeekPolicy         string
	MDNS               bool
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		SampleRate:         audio.DefaultSampleRate,
		Output:             output.BackendOto,
		ControlPort:        control.DefaultPort,
		FetchTimeout:       asset.DefaultFetchTimeout,
		PreloadConcurrency: asset.DefaultConcurrency,
		SeekPolicy:         engine.SeekResume.String(),
		MDNS:               true,
	}
}

// Load returns the defaults overridden by the process environment
func Load() (Config, error) {
	return FromEnv(os.LookupEnv)
}

// FromEnv returns the defaults overridden by lookup
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvSampleRate); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvSampleRate, err)
		}
		cfg.SampleRate = n
	}
	if v, ok := lookup(EnvOutput); ok {
		cfg.Output = v
	}
	if v, ok := lookup(EnvControlPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvControlPort, err)
		}
		cfg.ControlPort = n
	}
	if v, ok := lookup(EnvFetchTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvFetchTimeout, err)
		}
		cfg.FetchTimeout = d
	}
	if v, ok := lookup(EnvPreloadConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvPreloadConcurrency, err)
		}
		cfg.PreloadConcurrency = n
	}
	if v, ok := lookup(EnvSeekPolicy); ok {
		cfg.SeekPolicy = v
	}
	if v, ok := lookup(EnvMDNS); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMDNS, err)
		}
		cfg.MDNS = b
	}

	return cfg, cfg.Validate()
}

// Validate checks that every setting is usable
func (c Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate out of range: %d", c.SampleRate)
	}
	switch c.Output {
	case output.BackendOto, output.BackendMalgo, output.BackendNull:
	default:
		return fmt.Errorf("unknown output backend: %s", c.Output)
	}
	if c.ControlPort < 0 || c.ControlPort > 65535 {
		return fmt.Errorf("control port out of range: %d", c.ControlPort)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive: %v", c.FetchTimeout)
	}
	if c.PreloadConcurrency < 1 {
		return fmt.Errorf("preload concurrency must be at least 1: %d", c.PreloadConcurrency)
	}
	if _, ok := engine.ParseSeekPolicy(c.SeekPolicy); !ok {
		return fmt.Errorf("unknown seek policy: %s", c.SeekPolicy)
	}
	return nil
}

// Policy returns the parsed seek policy
func (c Config) Policy() engine.SeekPolicy {
	p, _ := engine.ParseSeekPolicy(c.SeekPolicy)
	return p
}
