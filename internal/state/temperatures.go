package state

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/temperature-dashboard/internal/common"
	"github.com/i474232898/temperature-dashboard/internal/models"
)

// ErrStaleLoad is returned when a load result belongs to a superseded request.
var ErrStaleLoad = errors.New("load superseded by a newer request")

// LoadStatus is the lifecycle of a date in the temperature cache.
type LoadStatus int

const (
	NotLoaded LoadStatus = iota
	Loading
	Loaded
	Failed
)

func (s LoadStatus) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "not_loaded"
	}
}

// TemperatureEntry describes one cached date.
type TemperatureEntry struct {
	Date   string
	Status LoadStatus
	Count  int
	Err    error

	data  []models.TemperatureDepartment
	token string
}

// TemperatureStore caches per-date temperature records and tracks in-flight loads.
//
// A date is fetched at most once at a time: Begin hands out a token and refuses while a
// load is in flight or the date is already cached. Only the holder of the latest token may
// Complete or Fail the entry.
type TemperatureStore struct {
	mu      sync.Mutex
	pubMu   sync.Mutex
	entries map[string]*TemperatureEntry

	loaded *Subject[[]string]
	cache  *Subject[map[string][]models.TemperatureDepartment]
}

// NewTemperatureStore returns an empty cache.
func NewTemperatureStore() *TemperatureStore {
	return &TemperatureStore{
		entries: make(map[string]*TemperatureEntry),
		loaded:  NewBehaviorSubject([]string{}),
		cache:   NewBehaviorSubject(map[string][]models.TemperatureDepartment{}),
	}
}

// FormatDate returns the cache key of a date.
func (s *TemperatureStore) FormatDate(date time.Time) string {
	return common.FormatDay(date)
}

// Begin marks key as loading and returns its token. ok is false when the date is
// already loaded or being loaded.
func (s *TemperatureStore) Begin(key string) (token string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	if e.Status == Loading || e.Status == Loaded {
		return "", false
	}
	e.Status = Loading
	e.Err = nil
	e.token = uuid.NewString()
	return e.token, true
}

// BeginForced marks key as loading regardless of its status, superseding any in-flight load.
// Previously cached records stay visible until the new load completes.
func (s *TemperatureStore) BeginForced(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	e.Status = Loading
	e.Err = nil
	e.token = uuid.NewString()
	return e.token
}

// Complete stores the records fetched under token. A superseded load is still
// accepted while the date holds no records, so a newer load that fails cannot leave
// the date empty; a newer load that is still pending keeps its token and replaces them.
func (s *TemperatureStore) Complete(key, token string, data []models.TemperatureDepartment) error {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	e := s.entry(key)
	switch {
	case e.token == token:
		e.token = ""
		e.Status = Loaded
		e.Err = nil
	case e.data == nil:
		if e.token == "" {
			e.Status = Loaded
			e.Err = nil
		}
	default:
		s.mu.Unlock()
		return ErrStaleLoad
	}
	e.data = cloneTemperatures(data)
	e.Count = len(e.data)
	loaded, cache := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(loaded, cache)
	return nil
}

// Fail records the failure of the load started under token. A date that was cached
// before a forced reload keeps its records and stays Loaded.
func (s *TemperatureStore) Fail(key, token string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	if e.token != token {
		return ErrStaleLoad
	}
	e.token = ""
	e.Err = err
	if e.data != nil {
		e.Status = Loaded
		return nil
	}
	e.Status = Failed
	return nil
}

// AddTemperatureDepartmentsForDate stores records for key unconditionally,
// superseding any in-flight load.
func (s *TemperatureStore) AddTemperatureDepartmentsForDate(key string, data []models.TemperatureDepartment) {
	token := s.BeginForced(key)
	_ = s.Complete(key, token, data)
}

// Entry returns the cache state of key.
func (s *TemperatureStore) Entry(key string) TemperatureEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return TemperatureEntry{Date: key, Status: NotLoaded}
	}
	c := *e
	c.data = nil
	c.token = ""
	return c
}

// Entries returns the cache state of every known date, newest first.
func (s *TemperatureStore) Entries() []TemperatureEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TemperatureEntry, 0, len(s.entries))
	for _, e := range s.entries {
		c := *e
		c.data = nil
		c.token = ""
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// LoadedDates streams the sorted keys of every cached date.
func (s *TemperatureStore) LoadedDates() Observable[[]string] {
	return s.loaded
}

// TemperatureDepartmentsByDate streams the whole cache.
func (s *TemperatureStore) TemperatureDepartmentsByDate() Observable[map[string][]models.TemperatureDepartment] {
	return s.cache
}

// ForDate streams the records cached for key. It emits nil while the date is absent
// and a non-nil slice, possibly empty, once loaded.
func (s *TemperatureStore) ForDate(key string) Observable[[]models.TemperatureDepartment] {
	byDate := Map(s.TemperatureDepartmentsByDate(), func(m map[string][]models.TemperatureDepartment) []models.TemperatureDepartment {
		return m[key]
	})
	return Distinct(byDate, sameRecords)
}

// sameRecords reports whether a and b are the same stored slice. Each load stores a fresh slice.
func sameRecords(a, b []models.TemperatureDepartment) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func (s *TemperatureStore) entry(key string) *TemperatureEntry {
	e, ok := s.entries[key]
	if !ok {
		e = &TemperatureEntry{Date: key, Status: NotLoaded}
		s.entries[key] = e
	}
	return e
}

func (s *TemperatureStore) snapshotLocked() ([]string, map[string][]models.TemperatureDepartment) {
	loaded := make([]string, 0, len(s.entries))
	cache := make(map[string][]models.TemperatureDepartment, len(s.entries))
	for key, e := range s.entries {
		if e.data == nil {
			continue
		}
		loaded = append(loaded, key)
		cache[key] = e.data
	}
	sort.Strings(loaded)
	return loaded, cache
}

func (s *TemperatureStore) publish(loaded []string, cache map[string][]models.TemperatureDepartment) {
	s.cache.Set(cache)
	s.loaded.Set(loaded)
}

func cloneTemperatures(data []models.TemperatureDepartment) []models.TemperatureDepartment {
	out := make([]models.TemperatureDepartment, len(data))
	copy(out, data)
	return out
}
