// ABOUTME: Master bus summing track mixers into the output
// ABOUTME: Keeps the frame counter that maps wall time to sample frames
package engine

import (
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

// Timebase pins a bus frame to a wall-clock instant
type Timebase struct {
	Frame int64
	Time  time.Time
	Rate  int
}

// FrameAt converts a wall-clock instant to a bus frame
func (tb Timebase) FrameAt(t time.Time) int64 {
	return tb.Frame + int64(math.Round(t.Sub(tb.Time).Seconds()*float64(tb.Rate)))
}

// Bus sums every attached mixer at unity gain. It is the Source the
// output backend pulls from; each Read advances the frame counter.
type Bus struct {
	format audio.Format

	mu     sync.Mutex
	frame  int64
	mixers []*Mixer
	acc    []int64
}

// NewBus creates a stereo bus at sampleRate
func NewBus(sampleRate int) *Bus {
	return &Bus{format: audio.EngineFormat(sampleRate)}
}

// Format returns the bus output format
func (b *Bus) Format() audio.Format {
	return b.format
}

// Anchor maps now to the next frame the bus will render
func (b *Bus) Anchor(now time.Time) Timebase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Timebase{Frame: b.frame, Time: now, Rate: b.format.SampleRate}
}

// Frame returns the next frame the bus will render
func (b *Bus) Frame() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// Attach connects a mixer to the bus
func (b *Bus) Attach(m *Mixer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mixers = append(b.mixers, m)
}

// Halt destroys every unit of every mixer, detaches the mixers and returns
// how many units were live. Nothing sounds after Halt returns.
func (b *Bus) Halt() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, m := range b.mixers {
		n += m.Halt()
	}
	b.mixers = nil
	return n
}

// Live returns the number of live units across all mixers
func (b *Bus) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, m := range b.mixers {
		n += m.Live()
	}
	return n
}

// Mixers returns the attached mixers
func (b *Bus) Mixers() []*Mixer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Mixer(nil), b.mixers...)
}

// Units snapshots every live unit
func (b *Bus) Units() []UnitInfo {
	var out []UnitInfo
	for _, m := range b.Mixers() {
		out = append(out, m.Units()...)
	}
	return out
}

// Read renders the next len(samples)/2 frames into samples, clamped to the
// 24-bit range. It returns len(samples) when any unit sounded and 0 for silence.
func (b *Bus) Read(samples []int32) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	frames := len(samples) / 2
	n := frames * 2
	if cap(b.acc) < n {
		b.acc = make([]int64, n)
	}
	acc := b.acc[:n]
	clear(acc)

	sounded := false
	for _, m := range b.mixers {
		if m.Render(acc, b.frame, frames) {
			sounded = true
		}
	}

	for i, v := range acc {
		samples[i] = audio.Clamp24(v)
	}
	clear(samples[n:])
	b.frame += int64(frames)

	if !sounded {
		return 0
	}
	return n
}
