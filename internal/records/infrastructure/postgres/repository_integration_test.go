package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	records "feedboard/internal/records/domain"
	recordspostgres "feedboard/internal/records/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestSummaryRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "daily_summaries") {
		t.Skip("daily_summaries missing; run migrations")
	}

	ctx := context.Background()
	_, _ = db.ExecContext(ctx, "DELETE FROM daily_summaries WHERE device_id IN ($1, $2)", "device-it-a", "device-it-b")

	day1 := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	insert := `
INSERT INTO daily_summaries
	(summary_date, device_id, daily_consumption, corrected_daily_consumption, last_weight, last_corrected_weight, last_update)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	seed := []struct {
		date       time.Time
		device     string
		daily      any
		corrected  any
		lastUpdate time.Time
	}{
		{day1, "device-it-a", 10.5, 10.0, day1.Add(8 * time.Hour)},
		{day2, "device-it-a", 11.5, 11.0, day2.Add(8 * time.Hour)},
		{day1, "device-it-b", 20.5, nil, day2.Add(9 * time.Hour)},
	}
	for _, row := range seed {
		if _, err := db.ExecContext(ctx, insert,
			row.date, row.device, row.daily, row.corrected, 100.0, 99.0, row.lastUpdate); err != nil {
			t.Fatalf("seed row: %v", err)
		}
	}

	repo := recordspostgres.NewSummaryRepository(db)

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	docs, dropped, err := repo.LoadDocuments(ctx)
	if err != nil {
		t.Fatalf("load documents: %v", err)
	}
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if len(docs) < 3 {
		t.Fatalf("documents = %d, want at least the seeded 3", len(docs))
	}
	var seen []records.Document
	for _, doc := range docs {
		if doc.DeviceID == "device-it-a" || doc.DeviceID == "device-it-b" {
			seen = append(seen, doc)
		}
	}
	if len(seen) != 3 {
		t.Fatalf("seeded documents = %d, want 3", len(seen))
	}
	if !seen[0].Date.After(seen[len(seen)-1].Date) {
		t.Fatalf("expected newest-first ordering, got %v first", seen[0].Date)
	}
	for _, doc := range seen {
		if doc.DeviceID == "device-it-b" {
			if doc.Corrected != nil {
				t.Fatalf("device-it-b corrected = %v, want nil", *doc.Corrected)
			}
			if doc.Provisional == nil || *doc.Provisional != 20.5 {
				t.Fatalf("device-it-b provisional = %v, want 20.5", doc.Provisional)
			}
		}
	}

	latest, err := repo.LatestDocuments(ctx, 100)
	if err != nil {
		t.Fatalf("latest documents: %v", err)
	}
	firstA, firstB := -1, -1
	for i, doc := range latest {
		if doc.DeviceID == "device-it-a" && firstA == -1 {
			firstA = i
		}
		if doc.DeviceID == "device-it-b" && firstB == -1 {
			firstB = i
		}
	}
	if firstA == -1 || firstB == -1 {
		t.Fatalf("seeded devices missing from latest set (a=%d b=%d)", firstA, firstB)
	}
	if firstB > firstA {
		t.Fatalf("expected device-it-b (newest last_update) before device-it-a, got %d > %d", firstB, firstA)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
