package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "icsread/internal/log"
)

// cacheEntry holds HTTP cache metadata for a single calendar URL. It lives
// next to the body blob as <key>.json and is keyed by the normalized URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	FetchedAt    time.Time `json:"fetched_at"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
}

// Fetcher retrieves remote calendar bytes with TTL-based and conditional
// (ETag / Last-Modified) revalidation backed by a disk cache.
//
// The cache trades staleness for availability: any fetch failure falls back
// to a previously cached body when one exists, so a transient network error
// is never fatal for a feed that was ever fetched successfully.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	ttl      time.Duration
	now      func() time.Time
}

// NewFetcher creates a Fetcher storing cache files under cacheDir. A ttl of
// zero (or less) disables caching entirely: every Fetch performs a direct
// unconditional request with no cache IO.
func NewFetcher(cacheDir string, ttl time.Duration) *Fetcher {
	if cacheDir == "" {
		// Caller should resolve this explicitly; fall back to a relative
		// dir so development runs never need special permissions.
		cacheDir = "./var/ics-cache"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
		ttl:      ttl,
		now:      time.Now,
	}
}

// NormalizeURL rewrites webcal/webcals URLs to https. Cache keys are always
// computed on the normalized URL, so scheme variants of the same feed share
// one cache entry.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch strings.ToLower(u.Scheme) {
	case "webcal", "webcals":
		u.Scheme = "https"
		return u.String()
	}
	return raw
}

// CacheKey returns the stable cache key for a URL: the hex sha256 digest of
// its normalized form.
func CacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

// Fetch returns the calendar body for rawURL, consulting the cache first.
//
//  1. A cached body whose recorded fetch time is within the TTL is returned
//     with no network call.
//  2. Otherwise a conditional request carries If-None-Match and
//     If-Modified-Since from stored metadata. 304 keeps the body and
//     refreshes only the fetch timestamp; a successful response persists
//     body and metadata.
//  3. Any other failure returns the stale cached body with a warning when
//     one exists, else the error propagates.
//
// Corrupt or unreadable metadata is treated as a cache miss, never an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u := NormalizeURL(rawURL)

	if f.ttl <= 0 {
		return f.fetchDirect(ctx, u)
	}

	if err := os.MkdirAll(f.cacheDir, 0o700); err != nil {
		return nil, err
	}

	key := CacheKey(u)
	bodyPath := filepath.Join(f.cacheDir, key+".ics")
	metaPath := filepath.Join(f.cacheDir, key+".json")

	meta, metaOK := loadCacheMeta(metaPath)
	cachedBody, _ := os.ReadFile(bodyPath)

	now := f.now().UTC()
	if len(cachedBody) > 0 && metaOK && !meta.FetchedAt.IsZero() && now.Sub(meta.FetchedAt) <= f.ttl {
		appLog.Debug("ics cache hit", "url", redactURL(u), "age", now.Sub(meta.FetchedAt))
		return cachedBody, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if metaOK {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return f.fallback(u, cachedBody, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, errors.New("received 304 Not Modified but no cached body available")
		}
		// Validators still hold; only the fetch timestamp moves forward.
		meta.URL = u
		meta.FetchedAt = now
		if serr := saveCacheMeta(metaPath, meta); serr != nil {
			appLog.Error("ics cache metadata refresh failed", serr, "url", redactURL(u))
		}
		appLog.Debug("ics fetch not modified, using cache", "url", redactURL(u))
		return cachedBody, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return f.fallback(u, cachedBody, readErr)
		}
		newMeta := cacheEntry{
			URL:          u,
			FetchedAt:    now,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if serr := saveCache(bodyPath, metaPath, newMeta, body); serr != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("ics cache save failed", serr, "url", redactURL(u))
		}
		appLog.Debug("ics fetch success", "url", redactURL(u), "status", resp.StatusCode)
		return body, nil

	default:
		return f.fallback(u, cachedBody, errors.New(resp.Status))
	}
}

// fetchDirect performs an unconditional request bypassing the cache.
func (f *Fetcher) fetchDirect(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", redactURL(u), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: %s", redactURL(u), resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// fallback returns the stale cached body when one exists, otherwise wraps
// and propagates the cause.
func (f *Fetcher) fallback(u string, cachedBody []byte, cause error) ([]byte, error) {
	if len(cachedBody) > 0 {
		appLog.Warn("ics fetch failed, using stale cached body", "url", redactURL(u), "cause", cause)
		return cachedBody, nil
	}
	return nil, fmt.Errorf("fetch %s: %w", redactURL(u), cause)
}

func loadCacheMeta(metaPath string) (cacheEntry, bool) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return cacheEntry{}, false
	}
	var meta cacheEntry
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, false
	}
	return meta, true
}

func saveCacheMeta(metaPath string, meta cacheEntry) error {
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath, data, 0o600)
}

func saveCache(bodyPath, metaPath string, meta cacheEntry, body []byte) error {
	// Write body first so metadata never points at a missing body.
	if err := os.WriteFile(bodyPath, body, 0o600); err != nil {
		return err
	}
	return saveCacheMeta(metaPath, meta)
}

// redactURL hides path and query of a calendar URL for logging; private
// feed URLs routinely embed tokens.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "ics://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}
