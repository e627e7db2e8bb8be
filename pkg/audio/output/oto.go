// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams 16-bit PCM pulled from a Source through a persistent oto player
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	sampleRate int
	channels   int
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{}
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format, src Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// oto only supports 16-bit output
	if format.BitDepth != 16 {
		log.Printf("oto output renders 16-bit, converting from %d-bit", format.BitDepth)
	}

	if o.player != nil {
		return fmt.Errorf("oto output already open")
	}

	// oto allows one context per process, so a reopen must keep the format
	if o.otoCtx != nil && (o.sampleRate != format.SampleRate || o.channels != format.Channels) {
		return fmt.Errorf("oto cannot change format (%dHz %dch -> %dHz %dch)",
			o.sampleRate, o.channels, format.SampleRate, format.Channels)
	}

	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan

		o.otoCtx = ctx
		o.sampleRate = format.SampleRate
		o.channels = format.Channels
	} else if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	o.player = o.otoCtx.NewPlayer(newPCM16Reader(src, format.Channels))
	// Keep the player's own buffer short so engine timing stays tight
	o.player.SetBufferSize(format.SampleRate / 20 * format.Channels * 2)
	o.player.Play()

	log.Printf("Audio output initialized: %dHz, %d channels (oto)", format.SampleRate, format.Channels)
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Warning: oto player close error: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}

// pcm16Reader adapts a Source to the io.Reader oto pulls from
type pcm16Reader struct {
	src      Source
	channels int
	scratch  []int32
}

func newPCM16Reader(src Source, channels int) *pcm16Reader {
	return &pcm16Reader{src: src, channels: channels}
}

// Read fills p with whole frames of signed 16-bit little-endian samples
func (r *pcm16Reader) Read(p []byte) (int, error) {
	frameBytes := r.channels * 2
	n := (len(p) / frameBytes) * r.channels
	if n == 0 {
		return 0, nil
	}

	if cap(r.scratch) < n {
		r.scratch = make([]int32, n)
	}
	samples := r.scratch[:n]
	clear(samples)
	r.src.Read(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return n * 2, nil
}
