package ics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/storage"
)

const cacheKeyPrefix = "cmucal.ics."

// MaxFeedBytes caps the size of a downloaded feed body.
const MaxFeedBytes int64 = 10 << 20

// CacheKey is the storage key holding the last good body of a feed.
func CacheKey(id string) string { return cacheKeyPrefix + id }

// Source is one configured ICS subscription.
type Source struct {
	ID   string
	Name string
	URL  string
}

// FetchResult is the payload of a single source.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

type cacheEntry struct {
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Body         string    `json:"body"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads ICS feeds with conditional requests. When a cache is
// configured the last good body is served on network failure.
type Fetcher struct {
	client  *http.Client
	cache   storage.KeyValue
	maxBody int64
}

// NewFetcher returns a Fetcher. cache may be nil.
func NewFetcher(client *http.Client, cache storage.KeyValue) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: constants.DefaultHTTPTimeout * time.Second}
	}
	return &Fetcher{client: client, cache: cache, maxBody: MaxFeedBytes}
}

// WithMaxBody overrides the feed size cap.
func (f *Fetcher) WithMaxBody(n int64) *Fetcher {
	f.maxBody = n
	return f
}

// FetchAll fetches every source. Failed sources are logged and reported in
// the error slice; the result slice only holds sources that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	var errs []error
	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			logger.Error("ICS fetch failed", "id", src.ID, "url", redactURL(src.URL), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.ID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	cached, hasCache := f.load(src.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if hasCache {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	logger.Debug("ICS fetch start", "id", src.ID, "url", redactURL(src.URL))
	resp, err := f.client.Do(req)
	if err != nil {
		if hasCache && ctx.Err() == nil {
			logger.Warn("ICS fetch failed, using cached body", "id", src.ID, "error", err)
			return FetchResult{Source: src, Body: []byte(cached.Body), FromCache: true}, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if !hasCache {
			return FetchResult{}, errors.New("received 304 Not Modified without a cached body")
		}
		return FetchResult{Source: src, Body: []byte(cached.Body), FromCache: true}, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
		if err != nil {
			return FetchResult{}, err
		}
		if int64(len(body)) > f.maxBody {
			return FetchResult{}, fmt.Errorf("feed exceeds %d bytes", f.maxBody)
		}
		f.save(src.ID, cacheEntry{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         string(body),
			UpdatedAt:    time.Now().UTC(),
		})
		return FetchResult{Source: src, Body: body}, nil

	default:
		if hasCache {
			logger.Warn("ICS fetch non-OK, using cached body", "id", src.ID, "status", resp.StatusCode)
			return FetchResult{Source: src, Body: []byte(cached.Body), FromCache: true}, nil
		}
		return FetchResult{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
}

func (f *Fetcher) load(id string) (cacheEntry, bool) {
	if f.cache == nil {
		return cacheEntry{}, false
	}
	raw, err := f.cache.GetItem(CacheKey(id))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("ICS cache read failed", "id", id, "error", err)
		}
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		logger.Warn("ICS cache entry is corrupt", "id", id, "error", err)
		return cacheEntry{}, false
	}
	return entry, true
}

func (f *Fetcher) save(id string, entry cacheEntry) {
	if f.cache == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := f.cache.SetItem(CacheKey(id), string(data)); err != nil {
		logger.Warn("ICS cache write failed", "id", id, "error", err)
	}
}

// redactURL keeps only scheme and host; feed URLs often embed private tokens.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
