package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"douro_cms/internal/domain"
)

// viewCache is the read-through cache for localized views. A nil cache or a
// cache error behaves as a miss.
//
// gen counts invalidations. A view built while an invalidation happened is
// returned to its caller but never stored.
type viewCache struct {
	c   domain.Cache
	ttl time.Duration
	gen *atomic.Uint64
}

func newViewCache(c domain.Cache, ttl time.Duration) viewCache {
	return viewCache{c: c, ttl: ttl, gen: new(atomic.Uint64)}
}

func (v viewCache) get(ctx context.Context, key string, dst any) bool {
	if v.c == nil {
		return false
	}
	ok, err := v.c.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (v viewCache) set(ctx context.Context, key string, val any, gen uint64) {
	if v.c == nil || v.gen.Load() != gen {
		return
	}
	if err := v.c.Set(ctx, key, val, int(v.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// drop evicts every locale variant of the keys built by format.
func (v viewCache) drop(ctx context.Context, format string, args ...any) {
	keys := make([]string, 0, 3)
	for _, l := range []domain.Locale{domain.LocalePT, domain.LocaleEN, domain.LocaleFR} {
		keys = append(keys, fmt.Sprintf(format, append(args, l)...))
	}
	v.evict(ctx, keys...)
}

func (v viewCache) evict(ctx context.Context, keys ...string) {
	if v.c == nil {
		return
	}
	v.gen.Add(1)
	for _, key := range keys {
		if err := v.c.Del(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache del failed")
		}
	}
}

// cached serves key from the cache or builds it with load and stores it.
func cached[T any](ctx context.Context, vc viewCache, key string, load func() (T, error)) (T, error) {
	var out T
	if vc.get(ctx, key, &out) {
		return out, nil
	}
	gen := vc.gen.Load()
	out, err := load()
	if err != nil {
		return out, err
	}
	vc.set(ctx, key, out, gen)
	return out, nil
}
