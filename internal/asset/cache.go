// ABOUTME: Decoded audio asset cache
// ABOUTME: Fetches, decodes and normalizes each asset once and shares the result
package asset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/resonate-daw/pkg/audio"
	"github.com/Resonate-Protocol/resonate-daw/pkg/audio/decode"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultFetchTimeout bounds one fetch and decode
	DefaultFetchTimeout = 30 * time.Second

	// DefaultConcurrency bounds parallel loads during Preload
	DefaultConcurrency = 4
)

// Asset is a decoded, immutable audio buffer in engine format
type Asset struct {
	ID     string
	Ref    string
	Buffer *audio.Buffer
}

// Duration returns the asset length in seconds
func (a *Asset) Duration() float64 {
	return a.Buffer.Duration()
}

// DecodeError reports an asset that could not be fetched or decoded
type DecodeError struct {
	Ref string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Ref, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Cache resolves asset references to decoded buffers. Each reference is
// decoded at most once while a load is in flight, and a successful load is
// kept for the cache's lifetime. Failed loads are not cached.
type Cache struct {
	fetcher     Fetcher
	format      audio.Format
	timeout     time.Duration
	concurrency int

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Asset

	decodes atomic.Int64
}

// Option configures a Cache
type Option func(*Cache)

// WithTimeout bounds each fetch and decode
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithConcurrency bounds parallel loads during Preload
func WithConcurrency(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewCache creates a cache that normalizes assets to the engine format at sampleRate
func NewCache(fetcher Fetcher, sampleRate int, opts ...Option) *Cache {
	c := &Cache{
		fetcher:     fetcher,
		format:      audio.EngineFormat(sampleRate),
		timeout:     DefaultFetchTimeout,
		concurrency: DefaultConcurrency,
		entries:     make(map[string]*Asset),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format returns the engine format assets are normalized to
func (c *Cache) Format() audio.Format {
	return c.format
}

// Resolve returns the decoded asset for ref, loading it if needed.
// Concurrent callers for one ref share a single load and receive the same *Asset.
// Cancelling ctx abandons the wait, not the load.
func (c *Cache) Resolve(ctx context.Context, ref string) (*Asset, error) {
	if a, ok := c.Lookup(ref); ok {
		return a, nil
	}

	ch := c.group.DoChan(ref, func() (interface{}, error) {
		return c.load(ref)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Asset), nil
	}
}

// Lookup returns a committed asset without blocking
func (c *Cache) Lookup(ref string) (*Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[ref]
	return a, ok
}

// Warm starts loading ref in the background
func (c *Cache) Warm(ref string) {
	if _, ok := c.Lookup(ref); ok {
		return
	}
	go func() {
		if _, err := c.Resolve(context.Background(), ref); err != nil {
			log.Printf("Asset warm failed: %v", err)
		}
	}()
}

// Preload resolves refs concurrently. A failure never stops the other
// loads; the returned map holds one entry per failed ref.
func (c *Cache) Preload(ctx context.Context, refs []string) map[string]error {
	var (
		mu       sync.Mutex
		failures = make(map[string]error)
	)

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, ref := range refs {
		g.Go(func() error {
			if _, err := c.Resolve(ctx, ref); err != nil {
				mu.Lock()
				failures[ref] = err
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return failures
}

// Len returns the number of committed assets
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Decodes returns how many loads have fetched and decoded a payload
func (c *Cache) Decodes() int64 {
	return c.decodes.Load()
}

// load fetches, decodes and commits ref. It runs at most once per ref at a time.
// A panic while fetching or decoding is reported as a DecodeError for ref.
func (c *Cache) load(ref string) (a *Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered panic loading asset %s: %v", ref, r)
			a, err = nil, &DecodeError{Ref: ref, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	// A caller may have missed the entry committed by the previous flight
	if cached, ok := c.Lookup(ref); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	data, contentType, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Err: err}
	}

	c.decodes.Add(1)
	decoded, err := decode.Decode(data, contentType, ref)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Err: err}
	}
	buf, err := decode.Normalize(decoded, c.format)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Err: err}
	}

	a = &Asset{
		ID:     assetID(ref),
		Ref:    ref,
		Buffer: buf,
	}

	c.mu.Lock()
	c.entries[ref] = a
	c.mu.Unlock()

	log.Printf("Decoded asset %s (%s): %.2fs %dHz/%dch -> %dHz in %v",
		a.ID, ref, a.Duration(), decoded.Format.SampleRate, decoded.Format.Channels,
		buf.Format.SampleRate, time.Since(start).Round(time.Millisecond))
	return a, nil
}

// assetID derives a stable opaque id from the reference
func assetID(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:8])
}
