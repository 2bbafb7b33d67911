package application

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	availabilityCacheSize = 1024
	availabilityCacheTTL  = 5 * time.Second
)

// availabilityCache memoizes read-only availability verdicts for a short
// window. Mutating flows never read it; they re-check under the resource
// lock and invalidate the resource's entries after committing.
type availabilityCache struct {
	entries *expirable.LRU[string, Availability]
}

func newAvailabilityCache() *availabilityCache {
	return &availabilityCache{
		entries: expirable.NewLRU[string, Availability](availabilityCacheSize, nil, availabilityCacheTTL),
	}
}

func availabilityCacheKey(resourceID string, start, end time.Time, excludeReservationID string) string {
	return strings.Join([]string{
		resourceID,
		start.UTC().Format(time.RFC3339Nano),
		end.UTC().Format(time.RFC3339Nano),
		excludeReservationID,
	}, "|")
}

func (c *availabilityCache) Get(key string) (Availability, bool) {
	if c == nil || c.entries == nil {
		return Availability{}, false
	}
	return c.entries.Get(key)
}

func (c *availabilityCache) Put(key string, verdict Availability) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Add(key, verdict)
}

// Invalidate drops every cached verdict for the resource.
func (c *availabilityCache) Invalidate(resourceID string) {
	if c == nil || c.entries == nil {
		return
	}
	prefix := resourceID + "|"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}
