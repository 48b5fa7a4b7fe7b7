package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/snapshot"
)

const (
	cacheVersionKey = "pulseboard:version"
	bumpChannel     = "pulseboard.bump"
)

// IndexInvalidator is implemented by stores that memoize the index
// document and can drop the memo on demand.
type IndexInvalidator interface {
	InvalidateIndex()
}

// CacheObserver is notified of cache hits and misses.
type CacheObserver interface {
	CacheHit(dir string)
	CacheMiss(dir string)
}

// Cached decorates a Store with a Redis cache. Keys carry a global version
// suffix; invalidation bumps the version instead of deleting keys. A nil
// client degrades to pass-through loads.
type Cached struct {
	inner    Store
	client   *redis.Client
	ttl      time.Duration
	observer CacheObserver
}

// NewCached wraps inner with the versioned Redis cache.
func NewCached(inner Store, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{inner: inner, client: client, ttl: ttl}
}

// WithObserver installs a cache outcome observer.
func (c *Cached) WithObserver(obs CacheObserver) *Cached {
	c.observer = obs
	return c
}

// Version returns the current cache version, initialising it when missing.
func (c *Cached) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

func (c *Cached) buildKey(ctx context.Context, parts ...string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, ":") + ":" + strconv.FormatInt(ver, 10), nil
}

// Index delegates to the inner store. Bump drops the inner memo along
// with the snapshot keys, so the index never outlives the bodies it
// points at.
func (c *Cached) Index(ctx context.Context) (*snapshot.Index, error) {
	return c.inner.Index(ctx)
}

func (c *Cached) invalidateIndex() {
	if inv, ok := c.inner.(IndexInvalidator); ok {
		inv.InvalidateIndex()
	}
}

// Week serves the exact-week read through the cache. Missing weeks are
// cached too, so aggregation over sparse months stays cheap.
func (c *Cached) Week(ctx context.Context, dir, week string) (*snapshot.Document, error) {
	return c.fetch(ctx, dir, []string{"pulseboard", "week", dir, week}, func(ctx context.Context) (*snapshot.Document, error) {
		return c.inner.Week(ctx, dir, week)
	})
}

// Report serves the fallback-resolving read through the cache, keyed by the
// requested week so repeated requests skip the fallback walk.
func (c *Cached) Report(ctx context.Context, dir, week string) (*snapshot.Document, error) {
	if c == nil || c.client == nil {
		return c.inner.Report(ctx, dir, week)
	}
	key, err := c.buildKey(ctx, "pulseboard", "report", dir, week)
	if err != nil {
		return nil, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		c.hit(dir)
		var doc snapshot.Document
		if err := json.Unmarshal(payload, &doc); err == nil {
			return &doc, nil
		}
	} else if err != redis.Nil {
		return nil, err
	}
	c.miss(dir)
	doc, err := c.inner.Report(ctx, dir, week)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

type cachedWeek struct {
	Missing bool               `json:"missing,omitempty"`
	Doc     *snapshot.Document `json:"doc,omitempty"`
}

func (c *Cached) fetch(ctx context.Context, dir string, parts []string, loader func(context.Context) (*snapshot.Document, error)) (*snapshot.Document, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.buildKey(ctx, parts...)
	if err != nil {
		return nil, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		c.hit(dir)
		var entry cachedWeek
		if err := json.Unmarshal(payload, &entry); err == nil {
			if entry.Missing {
				return nil, nil
			}
			return entry.Doc, nil
		}
	} else if err != redis.Nil {
		return nil, err
	}
	c.miss(dir)
	doc, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(cachedWeek{Missing: doc == nil, Doc: doc})
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Bump invalidates every cached snapshot by incrementing the global
// version and publishing the new value. The local index memo is dropped
// too; sibling processes drop theirs when the publication arrives.
func (c *Cached) Bump(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.invalidateIndex()
	if c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to version bump notifications so sibling
// processes converge on the published version.
func (c *Cached) ListenForInvalidation(ctx context.Context, channel string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if channel == "" {
		channel = bumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				c.invalidateIndex()
				if msg.Payload != "" {
					if ver, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil {
						_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
						continue
					}
				}
				_ = c.client.Incr(ctx, cacheVersionKey).Err()
			}
		}
	}()
	return nil
}

func (c *Cached) hit(dir string) {
	if c.observer != nil {
		c.observer.CacheHit(dir)
	}
}

func (c *Cached) miss(dir string) {
	if c.observer != nil {
		c.observer.CacheMiss(dir)
	}
}
