// ABOUTME: Per-track mixer node
// ABOUTME: Owns a track's playback units and mixes them with the track's gain and pan
package engine

import (
	"container/heap"
	"sync"

	"github.com/Resonate-Protocol/resonate-daw/internal/project"
)

// Mixer is the gain/pan stage for one track. Pending units wait in a
// heap ordered by start frame; active units render until they end.
type Mixer struct {
	trackID string
	gainL   float64
	gainR   float64

	mu      sync.Mutex
	pending *unitQueue
	active  []*PlaybackUnit

	stats MixerStats
}

// MixerStats tracks unit lifecycle counts
type MixerStats struct {
	Scheduled int64
	Completed int64
	Halted    int64
}

// NewMixer creates a mixer with the track's volume and pan fixed for this play
func NewMixer(t project.Track) *Mixer {
	left, right := ChannelGains(t.Volume, t.Pan)
	return &Mixer{
		trackID: t.ID,
		gainL:   left,
		gainR:   right,
		pending: newUnitQueue(),
	}
}

// TrackID returns the id of the track this mixer serves
func (m *Mixer) TrackID() string {
	return m.trackID
}

// Gains returns the left and right channel gains
func (m *Mixer) Gains() (left, right float64) {
	return m.gainL, m.gainR
}

// Schedule hands a unit to the mixer. The mixer owns it from here on.
func (m *Mixer) Schedule(u *PlaybackUnit) {
	m.mu.Lock()
	defer m.mu.Unlock()

	heap.Push(m.pending, u)
	m.stats.Scheduled++
}

// Render mixes every unit overlapping [blockStart, blockStart+frames) into
// acc and drops units that finish inside the block. It reports whether any
// unit contributed audio.
func (m *Mixer) Render(acc []int64, blockStart int64, frames int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	blockEnd := blockStart + int64(frames)
	for m.pending.Len() > 0 && m.pending.Peek().StartFrame < blockEnd {
		m.active = append(m.active, heap.Pop(m.pending).(*PlaybackUnit))
	}

	sounded := false
	live := m.active[:0]
	for _, u := range m.active {
		if u.EndFrame() > blockStart {
			u.mix(acc, blockStart, frames, m.gainL, m.gainR)
			sounded = true
		}
		if u.EndFrame() > blockEnd {
			live = append(live, u)
		} else {
			m.stats.Completed++
		}
	}
	clear(m.active[len(live):])
	m.active = live

	return sounded
}

// Halt destroys every unit at once and returns how many were live
func (m *Mixer) Halt() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.pending.Len() + len(m.active)
	m.pending = newUnitQueue()
	m.active = nil
	m.stats.Halted += int64(n)
	return n
}

// Live returns the number of pending and active units
func (m *Mixer) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.Len() + len(m.active)
}

// Units snapshots the live units, active first
func (m *Mixer) Units() []UnitInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]UnitInfo, 0, len(m.active)+m.pending.Len())
	for _, u := range m.active {
		out = append(out, u.Info())
	}
	for _, u := range m.pending.items {
		out = append(out, u.Info())
	}
	return out
}

// Stats returns mixer statistics
func (m *Mixer) Stats() MixerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// unitQueue is a priority queue of units by start frame
type unitQueue struct {
	items []*PlaybackUnit
}

func newUnitQueue() *unitQueue {
	q := &unitQueue{}
	heap.Init(q)
	return q
}

// Implement heap.Interface
func (q *unitQueue) Len() int { return len(q.items) }

func (q *unitQueue) Less(i, j int) bool {
	return q.items[i].StartFrame < q.items[j].StartFrame
}

func (q *unitQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *unitQueue) Push(x interface{}) {
	q.items = append(q.items, x.(*PlaybackUnit))
}

func (q *unitQueue) Pop() interface{} {
	n := len(q.items)
	item := q.items[n-1]
	q.items[n-1] = nil
	q.items = q.items[:n-1]
	return item
}

func (q *unitQueue) Peek() *PlaybackUnit {
	return q.items[0]
}
