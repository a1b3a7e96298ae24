package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func constLoader(calls *atomic.Int32, value any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestStore_LoadSharesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "standings", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.Load(context.Background(), "standings:2023110A1A", "2023110A1A", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "standings" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_LoadCountsHitsAndMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Load(ctx, "k", "", constLoader(&calls, "v")); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}

	stats := store.Stats()
	if calls.Load() != 1 || stats.Hits != 2 || stats.Misses != 1 || stats.Entries != 1 {
		t.Fatalf("unexpected stats %+v after %d loads", stats, calls.Load())
	}
}

func TestStore_LoadDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return nil, errors.New("db down")
	}

	for i := 0; i < 2; i++ {
		if _, err := store.Load(context.Background(), "k", "", loader); err == nil {
			t.Fatalf("expected loader error")
		}
	}
	if calls.Load() != 2 || store.Stats().Entries != 0 {
		t.Fatalf("errors must not be cached: calls=%d stats=%+v", calls.Load(), store.Stats())
	}
}

func TestStore_DropLeagues(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	ctx := context.Background()
	for key, league := range map[string]string{
		"standings:2023110A1A":  "2023110A1A",
		"standings:2023110a1":   "2023110a1",
		"standings:2023110B1A":  "2023110B1A",
		"topscorers:2023110A1A": "2023110A1A",
		"team:tj_sokol_lisek":   "",
	} {
		if _, err := store.Load(ctx, key, league, constLoader(&calls, key)); err != nil {
			t.Fatalf("load %s: %v", key, err)
		}
	}

	if dropped := store.DropLeagues("2023110A1A0101"); dropped != 3 {
		t.Fatalf("expected 3 league entries dropped, got %d", dropped)
	}
	if got := store.Stats().Entries; got != 2 {
		t.Fatalf("expected other league and team entries to survive, got %d entries", got)
	}
	if _, ok := store.get("standings:2023110B1A"); !ok {
		t.Fatalf("expected the other league to stay cached")
	}
	if store.DropLeagues() != 0 {
		t.Fatalf("no match numbers drop nothing")
	}
}

func TestStore_DropKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	ctx := context.Background()
	_, _ = store.Load(ctx, "team:a", "", constLoader(&calls, 1))
	_, _ = store.Load(ctx, "team:b", "", constLoader(&calls, 2))

	if dropped := store.DropKeys("team:a", "team:missing"); dropped != 1 {
		t.Fatalf("expected one key dropped, got %d", dropped)
	}
	if _, ok := store.get("team:b"); !ok {
		t.Fatalf("expected team:b to survive")
	}
}

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	now := time.Date(2023, 9, 2, 10, 15, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var calls atomic.Int32
	_, _ = store.Load(context.Background(), "k", "", constLoader(&calls, "v"))
	now = now.Add(2 * time.Minute)
	_, _ = store.Load(context.Background(), "k", "", constLoader(&calls, "v"))

	if calls.Load() != 2 {
		t.Fatalf("expected the expired entry to be reloaded, got %d loads", calls.Load())
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
