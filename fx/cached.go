package fx

import (
	"time"

	"github.com/etnz/folio/date"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// Cached memoizes the rates returned by a Source. Failed lookups are not cached.
type Cached struct {
	src   Source
	cache *cache.Cache
}

// NewCached wraps src. Rates expire after ttl, a zero ttl keeps them forever.
func NewCached(src Source, ttl time.Duration) *Cached {
	if ttl <= 0 {
		return &Cached{src: src, cache: cache.New(cache.NoExpiration, 0)}
	}
	return &Cached{src: src, cache: cache.New(ttl, 2*ttl)}
}

// Rate implements Source.
func (c *Cached) Rate(from, to string, on date.Date) (decimal.Decimal, error) {
	key := from + "/" + to + "@" + on.String()
	if r, ok := c.cache.Get(key); ok {
		return r.(decimal.Decimal), nil
	}
	r, err := c.src.Rate(from, to, on)
	if err != nil {
		return r, err
	}
	c.cache.SetDefault(key, r)
	return r, nil
}
