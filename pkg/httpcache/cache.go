// Package httpcache keeps GitHub GET responses between runs and revalidates them with ETags.
package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const cacheFile = "ghactivity-cache.gob"

// DefaultTTL is how long an entry may be revalidated before it is dropped.
const DefaultTTL = time.Hour

// CacheEntry is a cached response body with its validator.
type CacheEntry struct {
	ExpiresAt time.Time
	ETag      string
	Data      []byte
}

// OtterCache holds response bodies in memory and persists them to a gob file in dir.
type OtterCache struct {
	cache  *otter.Cache[string, CacheEntry]
	logger *slog.Logger
	dir    string
	ttl    time.Duration
	mu     sync.Mutex
}

// NewOtterCache creates dir if needed and loads any unexpired entries saved there.
func NewOtterCache(dir string, ttl time.Duration, logger *slog.Logger) (*OtterCache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &OtterCache{
		cache: otter.Must(&otter.Options[string, CacheEntry]{
			MaximumSize:      10_000,
			ExpiryCalculator: otter.ExpiryWriting[string, CacheEntry](ttl),
		}),
		dir:    dir,
		ttl:    ttl,
		logger: logger,
	}

	if err := c.loadFromDisk(); err != nil {
		logger.Warn("failed to load cache from disk", "error", err)
	}
	logger.Debug("cache initialized", "dir", dir, "entries_loaded", c.cache.EstimatedSize())

	return c, nil
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached body and ETag for url.
func (c *OtterCache) Get(url string) ([]byte, string, bool) {
	key := cacheKey(url)
	entry, found := c.cache.GetIfPresent(key)
	if !found {
		c.logger.Debug("cache miss", "url", url)
		return nil, "", false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.logger.Debug("cache miss", "url", url, "reason", "expired", "expired_at", entry.ExpiresAt)
		c.cache.Invalidate(key)
		return nil, "", false
	}
	return entry.Data, entry.ETag, true
}

// Set stores data and its ETag for url, resetting the expiry.
func (c *OtterCache) Set(url string, data []byte, etag string) {
	entry := CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
		ETag:      etag,
	}
	c.cache.Set(cacheKey(url), entry)
	c.logger.Debug("cache set", "url", url, "etag", etag, "size", len(data))
}

func (c *OtterCache) path() string {
	return filepath.Join(c.dir, cacheFile)
}

func (c *OtterCache) loadFromDisk() error {
	file, err := os.Open(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.logger.Debug("failed to close cache file", "error", err)
		}
	}()

	var entries map[string]CacheEntry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := time.Now()
	valid := 0
	for key, entry := range entries {
		if now.Before(entry.ExpiresAt) {
			c.cache.Set(key, entry)
			valid++
		}
	}
	c.logger.Debug("loaded cache from disk", "path", c.path(), "total_entries", len(entries), "valid_entries", valid)
	return nil
}

func (c *OtterCache) saveToDisk() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cachePath := c.path()
	tempPath := cachePath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			c.logger.Debug("failed to remove temp file", "error", err)
		}
	}()

	entries := make(map[string]CacheEntry)
	now := time.Now()
	for key, entry := range c.cache.All() {
		if now.Before(entry.ExpiresAt) {
			entries[key] = entry
		}
	}

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		_ = file.Close() //nolint:errcheck // encode error takes precedence
		return fmt.Errorf("encoding cache to file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tempPath, cachePath); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.logger.Debug("cache saved to disk", "entries", len(entries), "path", cachePath)
	return nil
}

// Close writes the cache to disk.
func (c *OtterCache) Close() error {
	if err := c.saveToDisk(); err != nil {
		c.logger.Error("final cache save failed", "error", err)
		return err
	}
	return nil
}

// HTTPClient interface for making HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CachedHTTPClient wraps an HTTP client with ETag revalidation.
type CachedHTTPClient struct {
	cache      *OtterCache
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewCachedHTTPClient creates a new cached HTTP client. A nil cache disables caching.
func NewCachedHTTPClient(cache *OtterCache, httpClient HTTPClient, logger *slog.Logger) *CachedHTTPClient {
	return &CachedHTTPClient{
		cache:      cache,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Do performs req. For GETs with a cached copy it sends If-None-Match and turns a
// 304 Not Modified into a 200 carrying the cached body.
func (c *CachedHTTPClient) Do(_ context.Context, req *http.Request) (*http.Response, error) {
	if c.cache == nil || req.Method != http.MethodGet {
		return c.httpClient.Do(req)
	}

	url := req.URL.String()
	cached, etag, found := c.cache.Get(url)
	if found && etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotModified && found:
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", "error", err)
		}
		c.logger.Debug("cache revalidated", "url", url)
		c.cache.Set(url, cached, etag)
		return cachedResponse(req, cached, etag), nil

	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
		if err != nil {
			return nil, err
		}
		if etag := resp.Header.Get("ETag"); etag != "" {
			c.cache.Set(url, body, etag)
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp, nil

	default:
		return resp, nil
	}
}

func cachedResponse(req *http.Request, data []byte, etag string) *http.Response {
	resp := &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("X-From-Cache", "true")
	resp.Header.Set("ETag", etag)
	return resp
}
