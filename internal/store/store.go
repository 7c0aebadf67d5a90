// Package store keeps generated models in memory for later modification
// and download. Entries expire after a period without writes.
package store

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/procgen3d/internal/logger"
	"github.com/Faultbox/procgen3d/internal/modifier"
)

// ErrNotFound is returned for unknown or expired model ids.
var ErrNotFound = errors.New("model not found or expired")

// DefaultTTL is used when Options.TTL is not positive.
const DefaultTTL = time.Hour

// Entry is a stored model. Entries are returned by value; mutate them
// through Update.
type Entry struct {
	ID        string
	OBJ       string
	Modifiers modifier.Set
	Prompt    string
	Created   time.Time
	Updated   time.Time
}

// Options configures a Store.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration    // Janitor period; no janitor when zero
	Now             func() time.Time // Clock, time.Now when nil
	Logger          *zap.Logger
}

// Stats is a snapshot of the store.
type Stats struct {
	Count  int
	TTL    time.Duration
	IDs    []string
	Hits   int64
	Misses int64
}

type slot struct {
	mu    sync.RWMutex
	entry Entry
}

// Store is a concurrency-safe model store with TTL expiry.
type Store struct {
	entries map[string]*slot
	mu      sync.RWMutex

	ttl time.Duration
	now func() time.Time
	log *zap.Logger

	// Stats
	hits   atomic.Int64
	misses atomic.Int64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a store and starts its janitor if a cleanup interval is set.
func New(opts Options) *Store {
	s := &Store{
		entries: make(map[string]*slot),
		ttl:     opts.TTL,
		now:     opts.Now,
		log:     opts.Logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logger.Named("store")
	}

	if opts.CleanupInterval > 0 {
		go s.janitor(opts.CleanupInterval)
	} else {
		close(s.done)
	}
	return s
}

// TTL returns the entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Put stores a new model under a fresh id.
func (s *Store) Put(objText string, mods modifier.Set, prompt string) Entry {
	now := s.now()
	e := Entry{
		ID:        uuid.NewString(),
		OBJ:       objText,
		Modifiers: mods,
		Prompt:    prompt,
		Created:   now,
		Updated:   now,
	}

	s.mu.Lock()
	s.entries[e.ID] = &slot{entry: e}
	s.mu.Unlock()

	s.log.Debug("model stored", zap.String("model_id", e.ID), zap.Int("bytes", len(objText)))
	return e
}

// Get returns the entry for id.
func (s *Store) Get(id string) (Entry, error) {
	sl := s.lookup(id)
	if sl == nil {
		s.misses.Add(1)
		return Entry{}, ErrNotFound
	}

	sl.mu.RLock()
	e := sl.entry
	sl.mu.RUnlock()

	if s.expired(e) {
		s.misses.Add(1)
		s.remove(id, sl)
		return Entry{}, ErrNotFound
	}
	s.hits.Add(1)
	return e, nil
}

// Update runs fn on a copy of the entry while holding the entry's lock,
// so concurrent updates of one id are serialized. If fn returns nil the
// copy replaces the entry and its expiry is refreshed. ID and Created
// cannot be changed.
func (s *Store) Update(id string, fn func(*Entry) error) (Entry, error) {
	sl := s.lookup(id)
	if sl == nil {
		return Entry{}, ErrNotFound
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	// The entry may have been deleted or expired while waiting.
	if s.lookup(id) != sl || s.expired(sl.entry) {
		return Entry{}, ErrNotFound
	}

	e := sl.entry
	if err := fn(&e); err != nil {
		return Entry{}, err
	}
	e.ID = sl.entry.ID
	e.Created = sl.entry.Created
	e.Updated = s.now()
	sl.entry = e
	return e, nil
}

// Delete removes id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// Cleanup removes expired entries and returns how many were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sl := range s.entries {
		// Skip entries that are mid-update.
		if !sl.mu.TryRLock() {
			continue
		}
		expired := s.expired(sl.entry)
		sl.mu.RUnlock()

		if expired {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Stats returns the number of entries, their ids and hit counters.
// Expired entries not yet cleaned up are excluded.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	slots := make(map[string]*slot, len(s.entries))
	for id, sl := range s.entries {
		slots[id] = sl
	}
	s.mu.RUnlock()

	ids := make([]string, 0, len(slots))
	for id, sl := range slots {
		sl.mu.RLock()
		live := !s.expired(sl.entry)
		sl.mu.RUnlock()
		if live {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return Stats{
		Count:  len(ids),
		TTL:    s.ttl,
		IDs:    ids,
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}
}

// Close stops the janitor. It is safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *Store) lookup(id string) *slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

// remove deletes id only if it still maps to sl.
func (s *Store) remove(id string, sl *slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[id] == sl {
		delete(s.entries, id)
	}
}

func (s *Store) expired(e Entry) bool {
	return s.now().Sub(e.Updated) > s.ttl
}

func (s *Store) janitor(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				s.log.Info("expired models removed", zap.Int("count", n))
			}
		case <-s.stop:
			return
		}
	}
}
