package cache

import (
	"context"
	"time"

	records "feedboard/internal/records/domain"
)

// Snapshot is one cached load of a source: the raw documents plus load
// metadata. The value-column toggle maps documents per render, so a snapshot
// serves both modes without refetching.
type Snapshot struct {
	Documents  []records.Document `json:"documents"`
	Dropped    int                `json:"dropped"`
	LoadedAt   time.Time          `json:"loaded_at"`
	Generation int64              `json:"generation"`
}

// Store caches at most one snapshot per source, valid for a bounded
// freshness window and invalidated wholesale.
type Store interface {
	Get(ctx context.Context, source string) (Snapshot, bool, error)
	Put(ctx context.Context, source string, snap Snapshot) error
	Invalidate(ctx context.Context, source string) error
}
