package stock

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

type pairKey struct {
	itemID     uint
	locationID uint
}

// BalanceCache holds the current consolidated balance per (item, location).
// A write to any stream of the pair invalidates it. Loads are coalesced, and a
// load that started before an invalidation never stores its result.
type BalanceCache struct {
	mu      sync.Mutex
	entries map[pairKey]int
	gens    map[pairKey]uint64
	epoch   uint64 // bumped by Reset
	group   singleflight.Group
}

func NewBalanceCache() *BalanceCache {
	return &BalanceCache{
		entries: make(map[pairKey]int),
		gens:    make(map[pairKey]uint64),
	}
}

// Load returns the cached balance or computes it with load. A nil cache
// always calls load.
func (c *BalanceCache) Load(itemID, locationID uint, load func() (int, error)) (int, error) {
	if c == nil {
		return load()
	}
	key := pairKey{itemID, locationID}

	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	gen, epoch := c.gens[key], c.epoch
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("%d/%d/%d/%d", itemID, locationID, epoch, gen), func() (any, error) {
		units, err := load()
		if err != nil {
			return 0, err
		}
		c.mu.Lock()
		if c.epoch == epoch && c.gens[key] == gen {
			c.entries[key] = units
		}
		c.mu.Unlock()
		return units, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (c *BalanceCache) Invalidate(itemID, locationID uint) {
	if c == nil {
		return
	}
	key := pairKey{itemID, locationID}
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
}

func (c *BalanceCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset drops every entry, e.g. after a package size change.
func (c *BalanceCache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.epoch++
	c.entries = make(map[pairKey]int)
	c.mu.Unlock()
}
