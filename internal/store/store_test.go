package store

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Faultbox/procgen3d/internal/modifier"
)

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *clock) {
	t.Helper()
	c := newClock()
	s := New(Options{TTL: ttl, Now: c.Now})
	t.Cleanup(s.Close)
	return s, c
}

func TestPutGet(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	e := s.Put("v 0 0 0\n", modifier.Defaults(), "a cube")
	if len(e.ID) != 36 {
		t.Errorf("expected uuid id, got %q", e.ID)
	}

	got, err := s.Get(e.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.OBJ != "v 0 0 0\n" || got.Prompt != "a cube" {
		t.Errorf("unexpected entry %+v", got)
	}
	if len(got.Modifiers) != 2 {
		t.Errorf("expected 2 modifiers, got %d", len(got.Modifiers))
	}

	other := s.Put("v 1 1 1\n", nil, "")
	if other.ID == e.ID {
		t.Error("ids collide")
	}
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if stats := s.Stats(); stats.Misses != 1 || stats.Hits != 0 {
		t.Errorf("hits/misses = %d/%d, want 0/1", stats.Hits, stats.Misses)
	}
}

func TestExpiry(t *testing.T) {
	s, c := newTestStore(t, time.Minute)
	e := s.Put("v 0 0 0\n", nil, "")

	c.Advance(time.Minute)
	if _, err := s.Get(e.ID); err != nil {
		t.Fatalf("entry expired at exactly ttl: %v", err)
	}

	c.Advance(time.Second)
	if _, err := s.Get(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired entry, got %v", err)
	}
	if s.Delete(e.ID) {
		t.Error("expired entry still present after Get")
	}
}

func TestUpdateRefreshesExpiry(t *testing.T) {
	s, c := newTestStore(t, time.Minute)
	e := s.Put("old", nil, "")

	c.Advance(50 * time.Second)
	updated, err := s.Update(e.ID, func(e *Entry) error {
		e.OBJ = "new"
		e.ID = "hijack"
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID != e.ID || updated.OBJ != "new" {
		t.Errorf("unexpected updated entry %+v", updated)
	}
	if !updated.Created.Equal(e.Created) || !updated.Updated.After(e.Updated) {
		t.Errorf("timestamps not maintained: %+v", updated)
	}

	// 100s after Put but only 50s after Update
	c.Advance(50 * time.Second)
	got, err := s.Get(e.ID)
	if err != nil {
		t.Fatalf("entry expired despite update: %v", err)
	}
	if got.OBJ != "new" {
		t.Errorf("OBJ = %q, want new", got.OBJ)
	}
}

func TestUpdateError(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	e := s.Put("old", nil, "")

	boom := errors.New("boom")
	if _, err := s.Update(e.ID, func(e *Entry) error {
		e.OBJ = "partial"
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := s.Get(e.ID)
	if got.OBJ != "old" {
		t.Errorf("failed update leaked: %q", got.OBJ)
	}

	if _, err := s.Update("missing", func(*Entry) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSerialized(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	e := s.Put("", nil, "")

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(e.ID, func(e *Entry) error {
				// Read-modify-write; lost updates would shorten the result.
				cur := e.OBJ
				time.Sleep(time.Millisecond)
				e.OBJ = cur + "x"
				return nil
			})
			if err != nil {
				t.Errorf("Update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.Get(e.ID)
	if got.OBJ != strings.Repeat("x", workers) {
		t.Errorf("OBJ = %q, want %d x", got.OBJ, workers)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	e := s.Put("v", nil, "")

	if !s.Delete(e.ID) {
		t.Fatal("Delete returned false for existing entry")
	}
	if s.Delete(e.ID) {
		t.Error("second Delete returned true")
	}
	if _, err := s.Get(e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCleanupAndStats(t *testing.T) {
	s, c := newTestStore(t, time.Minute)
	old := s.Put("old", nil, "")
	c.Advance(45 * time.Second)
	fresh := s.Put("fresh", nil, "")
	c.Advance(30 * time.Second)

	stats := s.Stats()
	if stats.Count != 1 || len(stats.IDs) != 1 || stats.IDs[0] != fresh.ID {
		t.Errorf("stats before cleanup = %+v", stats)
	}
	if stats.TTL != time.Minute {
		t.Errorf("ttl = %v", stats.TTL)
	}

	if n := s.Cleanup(); n != 1 {
		t.Errorf("Cleanup removed %d, want 1", n)
	}
	if s.Delete(old.ID) {
		t.Error("expired entry survived cleanup")
	}
	if !s.Delete(fresh.ID) {
		t.Error("fresh entry removed by cleanup")
	}
}

func TestJanitor(t *testing.T) {
	c := newClock()
	s := New(Options{TTL: time.Minute, CleanupInterval: 5 * time.Millisecond, Now: c.Now})
	defer s.Close()

	e := s.Put("v", nil, "")
	c.Advance(2 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.RLock()
		_, present := s.entries[e.ID]
		s.mu.RUnlock()
		if !present {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("janitor did not remove expired entry")
}

func TestCloseIdempotent(t *testing.T) {
	s := New(Options{CleanupInterval: time.Hour})
	s.Close()
	s.Close()

	if s.TTL() != DefaultTTL {
		t.Errorf("TTL = %v, want default", s.TTL())
	}
}
