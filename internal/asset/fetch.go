// ABOUTME: Asset byte-stream fetchers
// ABOUTME: Retrieves encoded audio over HTTP or from the local filesystem
package asset

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher retrieves the encoded bytes behind an asset reference
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (data []byte, contentType string, err error)
}

// HTTPFetcher fetches assets with HTTP GET
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher with a per-request timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads ref. Any status other than 200 is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// FileFetcher reads assets from disk. Relative paths resolve against Root.
type FileFetcher struct {
	Root string
}

// Fetch reads the file at ref, which may be a plain path or a file:// URL
func (f *FileFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	path := ref
	if strings.HasPrefix(ref, "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, "", fmt.Errorf("invalid file url: %w", err)
		}
		path = u.Path
	}
	if !filepath.IsAbs(path) && f.Root != "" {
		path = filepath.Join(f.Root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read asset: %w", err)
	}
	return data, mime.TypeByExtension(filepath.Ext(path)), nil
}

// MultiFetcher dispatches on the reference scheme: http and https go to
// HTTP, everything else to File
type MultiFetcher struct {
	HTTP Fetcher
	File Fetcher
}

// NewFetcher returns a MultiFetcher reading local refs relative to root
func NewFetcher(root string, timeout time.Duration) *MultiFetcher {
	return &MultiFetcher{
		HTTP: NewHTTPFetcher(timeout),
		File: &FileFetcher{Root: root},
	}
}

// Fetch routes ref to the matching fetcher
func (m *MultiFetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if m.HTTP == nil {
			return nil, "", fmt.Errorf("no http fetcher for %s", ref)
		}
		return m.HTTP.Fetch(ctx, ref)
	}
	if m.File == nil {
		return nil, "", fmt.Errorf("no file fetcher for %s", ref)
	}
	return m.File.Fetch(ctx, ref)
}
