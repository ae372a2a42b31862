package stats

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	cacheKeyPrefix = "stats::"
	genKeyPrefix   = "gen::"

	// freecache refuses entries larger than 1/1024 of its size
	cacheEntrySizeRatio = 1024
)

// MinCacheSizeBytes is the smallest cache able to hold a bundle of maxBundleBytes.
func MinCacheSizeBytes(maxBundleBytes int) int {
	return maxBundleBytes * cacheEntrySizeRatio
}

// Cache keeps computed statistics bundles per user. Every user has a generation
// stamp that is part of each bundle key; Invalidate replaces the stamp, so all
// the bundles cached before it are never read again and simply expire.
type Cache struct {
	store         *freecache.Cache
	ttl           time.Duration
	maxEntryBytes int
	// lastGeneration keeps stamps unique even within one clock tick
	lastGeneration atomic.Int64
}

func NewCache(sizeBytes int, ttl time.Duration) *Cache {
	c := &Cache{
		store:         freecache.NewCache(sizeBytes),
		ttl:           ttl,
		maxEntryBytes: sizeBytes / cacheEntrySizeRatio,
	}
	c.lastGeneration.Store(time.Now().UnixNano())
	return c
}

// Key resolves the user's current generation into a bundle key. Resolve it once
// per request, before reading the entries, and use it for both GetKey and SetKey:
// a write landing in between then leaves the stored bundle unreachable.
func (c *Cache) Key(userID, key string) []byte {
	return []byte(fmt.Sprintf("%s%s::%d::%s", cacheKeyPrefix, userID, c.generation(userID), key))
}

func (c *Cache) GetKey(bundleKey []byte) ([]byte, bool) {
	value, err := c.store.Get(bundleKey)
	if err != nil {
		return nil, false
	}
	return value, true
}

// SetKey stores the bundle and reports whether it was kept. Bundles over the
// entry size limit are skipped.
func (c *Cache) SetKey(bundleKey, value []byte) bool {
	if len(value) > c.maxEntryBytes {
		log.Debugf("stats cache: bundle of %d bytes over the %d bytes limit, not cached", len(value), c.maxEntryBytes)
		return false
	}
	if err := c.store.Set(bundleKey, value, int(c.ttl.Seconds())); err != nil {
		log.Warnf("stats cache: set bundle [%s]: %s", bundleKey, err)
		return false
	}
	return true
}

// Invalidate drops every cached bundle of the user.
func (c *Cache) Invalidate(userID string) {
	c.newGeneration(userID)
}

func (c *Cache) generation(userID string) int64 {
	raw, err := c.store.Get([]byte(genKeyPrefix + userID))
	if err == nil {
		if gen, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return gen
		}
	}
	// a missing stamp (never set, or evicted) must not match any older bundle
	return c.newGeneration(userID)
}

func (c *Cache) newGeneration(userID string) int64 {
	gen := c.lastGeneration.Add(1)
	if err := c.store.Set([]byte(genKeyPrefix+userID), []byte(strconv.FormatInt(gen, 10)), 0); err != nil {
		log.Warnf("stats cache: set generation for user [%s]: %s", userID, err)
	}
	return gen
}
