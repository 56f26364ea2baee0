package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no Redis is configured. Every read misses.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error                { return ErrCacheMiss }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) DeletePrefix(context.Context, string) error            { return nil }

// Loader reads through a Cache, collapsing concurrent misses on the same key.
type Loader struct {
	cache Cache
	ttl   time.Duration
	sfg   singleflight.Group // Prevents cache stampede
}

func NewLoader(c Cache, ttl time.Duration) *Loader {
	if c == nil {
		c = Noop{}
	}
	return &Loader{cache: c, ttl: ttl}
}

// Fetch returns the cached value for key, or calls load and caches its result.
// Cache failures are logged and never fail the request.
func Fetch[T any](ctx context.Context, l *Loader, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	err := l.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		slog.WarnContext(ctx, "cache get failed", "key", key, "error", err)
	}

	v, err, _ := l.sfg.Do(key, func() (interface{}, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Set(ctx, key, fresh, l.ttl); err != nil {
			slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops every key under prefix.
func (l *Loader) Invalidate(ctx context.Context, prefix string) {
	if err := l.cache.DeletePrefix(ctx, prefix); err != nil {
		slog.WarnContext(ctx, "cache invalidate failed", "prefix", prefix, "error", err)
	}
}
