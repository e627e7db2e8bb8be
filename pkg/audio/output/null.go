// ABOUTME: Headless audio output
// ABOUTME: Pulls from a Source in real time and discards the samples
package output

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
)

// nullPeriod is how often the null output drains its source
const nullPeriod = 10 * time.Millisecond

// Null drains a Source at the nominal sample rate without a device.
// It keeps the engine's frame counter advancing on machines without audio.
type Null struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNull creates a new headless output
func NewNull() Output {
	return &Null{}
}

// Open starts draining src
func (n *Null) Open(format audio.Format, src Source) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel != nil {
		return fmt.Errorf("null output already open")
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return fmt.Errorf("invalid output format: %dHz %dch", format.SampleRate, format.Channels)
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.drain(ctx, format, src)
	return nil
}

func (n *Null) drain(ctx context.Context, format audio.Format, src Source) {
	defer close(n.done)

	ticker := time.NewTicker(nullPeriod)
	defer ticker.Stop()

	start := time.Now()
	var pulled int64
	buf := make([]int32, 0, max(format.SampleRate/50, 1)*format.Channels)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// Pull exactly as many frames as wall time says are due
			due := int64(now.Sub(start).Seconds() * float64(format.SampleRate))
			for pulled < due {
				frames := min(due-pulled, int64(cap(buf)/format.Channels))
				chunk := buf[:frames*int64(format.Channels)]
				clear(chunk)
				src.Read(chunk)
				pulled += frames
			}
		}
	}
}

// Close stops draining
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel == nil {
		return nil
	}
	n.cancel()
	<-n.done
	n.cancel = nil
	return nil
}
