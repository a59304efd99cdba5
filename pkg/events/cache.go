package events

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/unklstewy/nightsky/pkg/coordinates"
)

// Key identifies a cached result: coordinates rounded to three decimals
// (about 100 m) and the UTC calendar date. Saved sites add their elevation
// in whole meters and the zone used where the coordinates have none.
type Key struct {
	LatMilli   int64
	LonMilli   int64
	Date       string
	ElevMeters int64
	Zone       string
}

// NewKey builds the cache key for a request.
func NewKey(latitude, longitude float64, date time.Time) Key {
	return Key{
		LatMilli: int64(math.Round(latitude * 1000)),
		LonMilli: int64(math.Round(longitude * 1000)),
		Date:     date.Format(time.DateOnly),
	}
}

// ObserverKey builds the cache key for a request from a full observer.
func ObserverKey(observer coordinates.Observer, date time.Time) Key {
	k := NewKey(observer.Location.Latitude, observer.Location.Longitude, date)
	k.ElevMeters = int64(math.Round(observer.Location.Altitude))
	k.Zone = observer.Timezone
	return k
}

// Latitude returns the rounded latitude in degrees.
func (k Key) Latitude() float64 { return float64(k.LatMilli) / 1000 }

// Longitude returns the rounded longitude in degrees.
func (k Key) Longitude() float64 { return float64(k.LonMilli) / 1000 }

// Observer returns the observer the key describes.
func (k Key) Observer() coordinates.Observer {
	o := coordinates.NewObserver(k.Latitude(), k.Longitude())
	o.Location.Altitude = float64(k.ElevMeters)
	return o
}

func (k Key) String() string {
	s := fmt.Sprintf("%.3f,%.3f@%s", k.Latitude(), k.Longitude(), k.Date)
	if k.ElevMeters != 0 {
		s += fmt.Sprintf("+%dm", k.ElevMeters)
	}
	if k.Zone != "" {
		s += "[" + k.Zone + "]"
	}
	return s
}

// CacheStats counts cache lookups.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// Cache is a bounded least-recently-used store of results.
// It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[Key, *Result]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewCache creates a cache holding at most size results.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[Key, *Result](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create event cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached result for key.
func (c *Cache) Get(key Key) (*Result, bool) {
	r, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return r, ok
}

// Add stores a result, evicting the least recently used entry when full.
func (c *Cache) Add(key Key, r *Result) {
	c.entries.Add(key, r)
}

// Stats returns a snapshot of the lookup counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}
