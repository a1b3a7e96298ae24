package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	league    string
	expiresAt time.Time
}

// Stats counts lookups since the store was created.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Store is an in-process TTL cache for league read models. Entries can be
// filed under a league prefix so that storing a match only drops the reads of
// the competition it belongs to. Concurrent misses on one key share a single
// load.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	flight  singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load returns the value cached under key, running loader on a miss. league
// is the league prefix the value was computed for, or "" for entries that are
// only dropped by key. Loader errors are returned and never cached.
func (s *Store) Load(ctx context.Context, key, league string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.get(key); ok {
		s.hits.Add(1)
		return value, nil
	}
	s.misses.Add(1)

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.get(key); ok {
			return cached, nil
		}
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.set(key, league, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && !e.expiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (s *Store) set(key, league string, value any) {
	e := entry{value: value, league: league}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// DropLeagues removes every entry whose league prefix covers one of the given
// federation match numbers. Prefixes compare case-insensitively because the
// SQLite LIKE used by the league queries does. It returns the number of
// entries removed.
func (s *Store) DropLeagues(facrGameIDs ...string) int {
	if len(facrGameIDs) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for key, e := range s.entries {
		if e.league == "" {
			continue
		}
		for _, id := range facrGameIDs {
			if len(id) >= len(e.league) && strings.EqualFold(id[:len(e.league)], e.league) {
				delete(s.entries, key)
				dropped++
				break
			}
		}
	}
	return dropped
}

// DropKeys removes the given keys and returns how many were present.
func (s *Store) DropKeys(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for _, key := range keys {
		if _, ok := s.entries[key]; ok {
			delete(s.entries, key)
			dropped++
		}
	}
	return dropped
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	entries := len(s.entries)
	s.mu.RUnlock()
	return Stats{Entries: entries, Hits: s.hits.Load(), Misses: s.misses.Load()}
}
