package search

import (
	"container/list"
	"strconv"
	"strings"
	"sync"

	"github.com/hyperjump/bloemist/internal/highlight"
)

// HighlighterCache is an LRU cache of compiled highlighters keyed by keyword list.
type HighlighterCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value *highlight.Highlighter
}

// NewHighlighterCache creates a new cache with the given capacity (minimum 1).
func NewHighlighterCache(capacity int) *HighlighterCache {
	if capacity < 1 {
		capacity = 1
	}
	return &HighlighterCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// cacheKey length-prefixes each keyword so distinct lists never share a key.
func cacheKey(keywords []string) string {
	var b strings.Builder
	for _, kw := range keywords {
		b.WriteString(strconv.Itoa(len(kw)))
		b.WriteByte(':')
		b.WriteString(kw)
	}
	return b.String()
}

// Get returns a highlighter for keywords, compiling and caching it on a miss.
// Keyword order is part of the key since it decides equal-length ties.
func (c *HighlighterCache) Get(keywords []string) *highlight.Highlighter {
	key := cacheKey(keywords)
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value
	}

	h := highlight.NewHighlighter(keywords)
	elem := c.lru.PushFront(&cacheEntry{key: key, value: h})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
	return h
}

// Len returns the number of cached highlighters.
func (c *HighlighterCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
