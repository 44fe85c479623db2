// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheEntries is the default number of decoded files a Cache keeps.
const DefaultCacheEntries = 128

// FileReader reads whole files by archive path. *Archive and *Chain
// implement it.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// Interface compliance.
var (
	_ FileReader = (*Archive)(nil)
	_ FileReader = (*Chain)(nil)
)

// Cache keeps recently decoded files in memory.
//
// Concurrent ReadFile calls for the same name are deduplicated using
// singleflight, so a file is decoded once even when many goroutines ask for
// it at the same time. Returned slices are shared between callers and must
// not be modified.
type Cache struct {
	src        FileReader
	entries    *lru.Cache[string, []byte]
	fetchGroup singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	entries int
}

// WithCacheEntries sets the maximum number of files kept.
func WithCacheEntries(n int) CacheOption {
	return func(c *cacheConfig) {
		c.entries = n
	}
}

// NewCache wraps src with an LRU cache of decoded files.
func NewCache(src FileReader, opts ...CacheOption) (*Cache, error) {
	cfg := cacheConfig{entries: DefaultCacheEntries}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	entries, err := lru.New[string, []byte](cfg.entries)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{src: src, entries: entries}, nil
}

// ReadFile returns the cached content of name, reading it from the source
// on a miss. Errors are not cached.
func (c *Cache) ReadFile(name string) ([]byte, error) {
	key := normalizeKey(name)

	// Check cache first (fast path, avoids singleflight overhead)
	if content, ok := c.entries.Get(key); ok {
		return content, nil
	}

	result, err, _ := c.fetchGroup.Do(key, func() (any, error) {
		// Another caller may have filled the entry since the check above.
		if content, ok := c.entries.Get(key); ok {
			return content, nil
		}

		content, err := c.src.ReadFile(name)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, content)
		return content, nil
	})
	if err != nil {
		return nil, err
	}

	content, _ := result.([]byte) //nolint:errcheck // type assertion always succeeds when err is nil
	return content, nil
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached file.
func (c *Cache) Purge() {
	c.entries.Purge()
}
