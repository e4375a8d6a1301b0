package application

import (
	"context"
	"errors"
	"log"
	"time"

	"feedboard/internal/observability/metrics"
	"feedboard/internal/records/infrastructure/cache"

	records "feedboard/internal/records/domain"
)

// Source loads raw summary documents from one backing system. The second
// return is the number of malformed rows the source dropped.
type Source interface {
	Name() string
	LoadDocuments(ctx context.Context) ([]records.Document, int, error)
}

// Loader serves dataset snapshots with a bounded freshness window. There is
// one cache entry per source; a cache failure degrades to a reload, never to
// a failed render.
type Loader struct {
	source Source
	store  cache.Store
	logger *log.Logger
	now    func() time.Time
}

// NewLoader constructs a loader.
func NewLoader(source Source, store cache.Store, logger *log.Logger) (*Loader, error) {
	if source == nil {
		return nil, errors.New("loader: nil source")
	}
	if store == nil {
		return nil, errors.New("loader: nil cache store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{source: source, store: store, logger: logger, now: time.Now}, nil
}

// Snapshot returns the cached document set when fresh, loading from the
// source otherwise.
func (l *Loader) Snapshot(ctx context.Context) (cache.Snapshot, error) {
	snap, ok, err := l.store.Get(ctx, l.source.Name())
	if err != nil {
		l.logger.Printf("cache get error, reloading: %v", err)
	}
	if ok {
		metrics.IncCacheEvent(metrics.CacheHit)
		return snap, nil
	}
	metrics.IncCacheEvent(metrics.CacheMiss)

	start := l.now()
	docs, dropped, err := l.source.LoadDocuments(ctx)
	if err != nil {
		metrics.ObserveLoad(l.source.Name(), metrics.ResultError, l.now().Sub(start))
		return cache.Snapshot{}, err
	}
	metrics.ObserveLoad(l.source.Name(), metrics.ResultSuccess, l.now().Sub(start))
	if dropped > 0 {
		metrics.AddRowsDropped("malformed", dropped)
	}

	loadedAt := l.now().UTC()
	snap = cache.Snapshot{
		Documents:  docs,
		Dropped:    dropped,
		LoadedAt:   loadedAt,
		Generation: loadedAt.UnixNano(),
	}
	if err := l.store.Put(ctx, l.source.Name(), snap); err != nil {
		l.logger.Printf("cache put error: %v", err)
	}
	return snap, nil
}

// Dataset projects the current snapshot onto records for the value mode.
// Documents without a usable value for the mode are dropped here.
func (l *Loader) Dataset(ctx context.Context, mode records.ValueMode) (*records.Dataset, int, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}

	recs := make([]records.Record, 0, len(snap.Documents))
	dropped := snap.Dropped
	for _, doc := range snap.Documents {
		rec, ok := doc.RecordForMode(mode)
		if !ok {
			dropped++
			continue
		}
		recs = append(recs, rec)
	}
	return records.NewDataset(recs, snap.Generation), dropped, nil
}

// Invalidate drops the cached snapshot so the next render reloads.
func (l *Loader) Invalidate(ctx context.Context) {
	if err := l.store.Invalidate(ctx, l.source.Name()); err != nil {
		l.logger.Printf("cache invalidate error: %v", err)
		return
	}
	metrics.IncCacheEvent(metrics.CacheInvalidated)
}

// SourceName returns the configured source's name.
func (l *Loader) SourceName() string {
	if l == nil || l.source == nil {
		return ""
	}
	return l.source.Name()
}
