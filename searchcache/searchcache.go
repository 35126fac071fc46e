// Package searchcache is an optional, never-authoritative read-through cache
// in front of the Search Engine, backed by github.com/redis/go-redis/v9. A
// nil *Cache (no Redis URL configured) disables caching entirely; callers
// always fall back to search.Run on a miss or when the cache is disabled.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"elogy.dev/core/search"
	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client with a fixed TTL for cached search results.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a Cache, or returns a nil *Cache (caching disabled) when
// redisURL is empty.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("searchcache: parse redis url: %w", err)
	}
	return &Cache{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Result is the cached, JSON-serialisable shape of a search.Run response.
type Result struct {
	Rows  []search.ThreadRow `json:"rows"`
	Total int                `json:"total"`
}

// Key derives a stable cache key from a Filter. Regexp filters are keyed by
// their source pattern since *regexp.Regexp is not itself comparable/hashable
// in a stable way across instances.
func Key(f search.Filter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "logbook=%v;children=%v;archived=%v;", f.LogbookID, f.ChildLogbooks, f.IncludeArchived)
	fmt.Fprintf(&b, "followups=%v;sortts=%v;n=%d;offset=%d;count=%v;", f.Followups, f.SortByTimestamp, f.N, f.Offset, f.CountOnly)
	if f.ContentFilter != nil {
		fmt.Fprintf(&b, "content=%s;", f.ContentFilter.String())
	}
	if f.TitleFilter != nil {
		fmt.Fprintf(&b, "title=%s;", f.TitleFilter.String())
	}
	if f.AuthorFilter != nil {
		fmt.Fprintf(&b, "author=%s;", f.AuthorFilter.String())
	}
	if f.AttachmentFilter != nil {
		fmt.Fprintf(&b, "attachment=%s;", f.AttachmentFilter.String())
	}
	for _, av := range f.AttributeFilter {
		fmt.Fprintf(&b, "attr:%s=%s;", av.Name, av.Value)
	}
	for _, mv := range f.MetadataFilter {
		fmt.Fprintf(&b, "meta:%s=%s;", mv.Name, mv.Value)
	}
	if f.FromTimestamp != nil {
		fmt.Fprintf(&b, "from=%s;", f.FromTimestamp.UTC().Format(time.RFC3339))
	}
	if f.UntilTimestamp != nil {
		fmt.Fprintf(&b, "until=%s;", f.UntilTimestamp.UTC().Format(time.RFC3339))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "search:" + hex.EncodeToString(sum[:])
}

// Get returns a cached Result for key, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (Result, bool, error) {
	if c == nil {
		return Result{}, false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("searchcache: get: %w", err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false, fmt.Errorf("searchcache: decode: %w", err)
	}
	return res, true, nil
}

// Set stores a Result under key with the Cache's configured TTL.
func (c *Cache) Set(ctx context.Context, key string, res Result) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("searchcache: encode: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("searchcache: set: %w", err)
	}
	return nil
}

// Run executes f through the cache: a hit returns the cached rows/total; a
// miss calls search.Run, caches the result, and returns it. Caching is
// bypassed entirely (direct call to search.Run) when the filter requests a
// count-only response, since those are cheap and cheaper still to recompute
// than to key uniquely alongside paginated variants.
func Run(ctx context.Context, c *Cache, run func() ([]search.ThreadRow, int, error), f search.Filter) ([]search.ThreadRow, int, error) {
	if c == nil || f.CountOnly {
		return run()
	}

	key := Key(f)
	if cached, ok, err := c.Get(ctx, key); err == nil && ok {
		return cached.Rows, cached.Total, nil
	}

	rows, total, err := run()
	if err != nil {
		return nil, 0, err
	}
	_ = c.Set(ctx, key, Result{Rows: rows, Total: total})
	return rows, total, nil
}
