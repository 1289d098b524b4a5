package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/temperature-dashboard/internal/models"
)

var (
	// ErrNotFound is returned when no fresh history is cached for a key.
	ErrNotFound = errors.New("no cached history")
)

// HistoryKey identifies one fetched history window of a département.
type HistoryKey struct {
	Code string
	From string
	To   string
}

type historyEntry struct {
	records []models.TemperatureDepartment
	savedAt time.Time
}

// HistoryCache is a concurrency-safe in-memory cache of département histories.
type HistoryCache struct {
	mu sync.RWMutex

	data map[HistoryKey]*historyEntry
	// insertion order, oldest first
	order []HistoryKey

	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
}

// NewHistoryCache creates a HistoryCache with optional limits.
// maxEntries <= 0 means unlimited, maxAge <= 0 means entries never expire.
func NewHistoryCache(maxEntries int, maxAge time.Duration) *HistoryCache {
	return &HistoryCache{
		data:       make(map[HistoryKey]*historyEntry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save stores a copy of records under key and enforces retention.
func (c *HistoryCache) Save(key HistoryKey, records []models.TemperatureDepartment) {
	cp := make([]models.TemperatureDepartment, len(records))
	copy(cp, records)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.data[key]; ok {
		c.removeFromOrder(key)
	}
	c.data[key] = &historyEntry{records: cp, savedAt: c.now()}
	c.order = append(c.order, key)

	if c.maxEntries > 0 && len(c.order) > c.maxEntries {
		over := len(c.order) - c.maxEntries
		for _, k := range c.order[:over] {
			delete(c.data, k)
		}
		c.order = append([]HistoryKey(nil), c.order[over:]...)
	}
}

// Get returns a copy of the records cached under key.
// Expired entries are reported as ErrNotFound and dropped.
func (c *HistoryCache) Get(key HistoryKey) ([]models.TemperatureDepartment, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	if c.maxAge > 0 && c.now().Sub(entry.savedAt) > c.maxAge {
		c.mu.Lock()
		if current, ok := c.data[key]; ok && current == entry {
			delete(c.data, key)
			c.removeFromOrder(key)
		}
		c.mu.Unlock()
		return nil, ErrNotFound
	}

	out := make([]models.TemperatureDepartment, len(entry.records))
	copy(out, entry.records)
	return out, nil
}

// Len is the number of cached windows, expired ones included.
func (c *HistoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Purge drops every entry.
func (c *HistoryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[HistoryKey]*historyEntry)
	c.order = nil
}

func (c *HistoryCache) removeFromOrder(key HistoryKey) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
