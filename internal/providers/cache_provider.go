package providers

import (
	"clanwatch/internal/structures"

	"github.com/coocood/freecache"
)

// CacheProviderInterface holds rendered JSON views.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	// Purge drops every entry, used once a new snapshot is loaded.
	Purge()
	Len() int64
}

type CacheProvider struct {
	cache *freecache.Cache
	ttl   int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "View cache disabled")
		return &noopCache{}
	}

	// keys carry the snapshot generation, the ttl only bounds memory held by stale views
	ttl := max(int(conf.Cache.TTL.Seconds()), 1)
	logger.Infof(TypeApp, "View cache: %dMB, ttl %ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache: freecache.NewCache(conf.Cache.Size * 1024 * 1024),
		ttl:   ttl,
	}
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set ignores freecache.ErrLargeEntry, an oversized view is simply recomputed.
func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set([]byte(key), value, c.ttl)
}

func (c *CacheProvider) Purge() {
	c.cache.Clear()
}

func (c *CacheProvider) Len() int64 {
	return c.cache.EntryCount()
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Purge()                      {}
func (n *noopCache) Len() int64                  { return 0 }
