package cache

import (
	"context"
	"testing"
	"time"

	records "feedboard/internal/records/domain"
)

func TestMemoryStore_FreshnessWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore(10*time.Minute, WithClock(clock))
	ctx := context.Background()

	snap := Snapshot{
		Documents:  []records.Document{{DeviceID: "devA", Date: now}},
		LoadedAt:   now,
		Generation: now.UnixNano(),
	}
	if err := store.Put(ctx, "postgres", snap); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx, "postgres")
	if err != nil || !ok {
		t.Fatalf("get = ok=%v err=%v, want hit", ok, err)
	}
	if len(got.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(got.Documents))
	}

	now = now.Add(9 * time.Minute)
	if _, ok, _ := store.Get(ctx, "postgres"); !ok {
		t.Fatal("snapshot should still be fresh at 9m")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "postgres"); ok {
		t.Fatal("snapshot must expire after the freshness window")
	}
}

func TestMemoryStore_Invalidate(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	if err := store.Put(ctx, "spreadsheet", Snapshot{LoadedAt: time.Now()}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Invalidate(ctx, "spreadsheet"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "spreadsheet"); ok {
		t.Fatal("snapshot must be gone after invalidation")
	}
}

func TestMemoryStore_MissForUnknownSource(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if _, ok, err := store.Get(context.Background(), "nope"); ok || err != nil {
		t.Fatalf("get = ok=%v err=%v, want clean miss", ok, err)
	}
}
