package fingerprint

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cachedSymbol struct {
	sym Symbol
	ok  bool
}

// Cached memoizes the most recently fingerprinted tokens of an Extractor.
//
// Word-level documents repeat a small working vocabulary, so a bounded LRU
// keeps the hot words without growing with the document.
type Cached struct {
	Extractor
	cache *lru.Cache[string, cachedSymbol]
}

// NewCached wraps e with an LRU of the given size.
func NewCached(e Extractor, size int) (*Cached, error) {
	cache, err := lru.New[string, cachedSymbol](size)
	if err != nil {
		return nil, fmt.Errorf("fingerprint cache: %w", err)
	}
	return &Cached{Extractor: e, cache: cache}, nil
}

// Fingerprint consults the cache before the wrapped extractor.
func (c *Cached) Fingerprint(token string) (Symbol, bool) {
	if v, ok := c.cache.Get(token); ok {
		return v.sym, v.ok
	}
	sym, ok := c.Extractor.Fingerprint(token)
	c.cache.Add(token, cachedSymbol{sym: sym, ok: ok})
	return sym, ok
}

// Len returns the number of cached tokens.
func (c *Cached) Len() int {
	return c.cache.Len()
}
