package application

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	dashboard "feedboard/internal/dashboard/domain"
	recordsapp "feedboard/internal/records/application"
	"feedboard/internal/records/infrastructure/cache"

	records "feedboard/internal/records/domain"
)

type stubSource struct {
	docs    []records.Document
	dropped int
	err     error
	calls   int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) LoadDocuments(ctx context.Context) ([]records.Document, int, error) {
	s.calls++
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.docs, s.dropped, nil
}

func floatPtr(v float64) *float64 { return &v }

func testDay(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %s: %v", value, err)
	}
	return parsed
}

func testDocs(t *testing.T) []records.Document {
	t.Helper()
	return []records.Document{
		{Date: testDay(t, "2024-01-01"), DeviceID: "devA", Provisional: floatPtr(10), Corrected: floatPtr(9)},
		{Date: testDay(t, "2024-01-02"), DeviceID: "devA", Provisional: floatPtr(11), Corrected: floatPtr(10)},
		{Date: testDay(t, "2024-01-01"), DeviceID: "devB", Provisional: floatPtr(20)},
	}
}

func newTestService(t *testing.T, source recordsapp.Source) *Service {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	loader, err := recordsapp.NewLoader(source, cache.NewMemoryStore(time.Minute), logger)
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	service, err := NewService(loader, NewSessionStore(time.Hour), records.ModeCorrected, logger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestService_FirstRenderStartsUnselected(t *testing.T) {
	service := newTestService(t, &stubSource{docs: testDocs(t)})
	sess := service.Session("")

	result, err := service.Render(context.Background(), sess)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.Status != StatusNoSelection {
		t.Fatalf("status = %s, want no_selection on a fresh session", result.Status)
	}
	if result.Message == "" {
		t.Fatal("first render must prompt the user to pick devices")
	}
	if len(result.Selection) != 0 || result.AllSelected {
		t.Fatalf("selection = %v all_selected = %v, want nothing selected", result.Selection, result.AllSelected)
	}
	if len(result.Catalog) == 0 {
		t.Fatal("catalog must still be offered for selection")
	}
	if result.Charts != nil || len(result.Preview) != 0 {
		t.Fatal("no charts or preview before a selection is made")
	}
}

func TestService_RenderOK(t *testing.T) {
	service := newTestService(t, &stubSource{docs: testDocs(t)})
	sess := service.Session("")
	ctx := context.Background()

	if err := service.ToggleAll(ctx, sess, true); err != nil {
		t.Fatalf("toggle all: %v", err)
	}
	result, err := service.Render(ctx, sess)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("status = %s, want ok", result.Status)
	}
	if result.Mode != records.ModeCorrected {
		t.Fatalf("mode = %s, want corrected", result.Mode)
	}
	if len(result.Catalog) != 1 || result.Catalog[0] != "devA" {
		t.Fatalf("catalog = %v, want only devA (devB has no corrected value)", result.Catalog)
	}
	if !result.AllSelected {
		t.Fatal("expected aggregate flag after selecting everything")
	}
	if result.StartDate != "2024-01-01" || result.EndDate != "2024-01-02" {
		t.Fatalf("range = %s..%s", result.StartDate, result.EndDate)
	}
	if result.Charts == nil || len(result.Preview) != 2 {
		t.Fatalf("expected charts and 2 preview rows, got %v rows", len(result.Preview))
	}
	if result.DroppedRows != 1 {
		t.Fatalf("dropped = %d, want devB's corrected-less document", result.DroppedRows)
	}
}

func TestService_RenderNoData(t *testing.T) {
	service := newTestService(t, &stubSource{})
	result, err := service.Render(context.Background(), service.Session(""))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.Status != StatusNoData {
		t.Fatalf("status = %s, want no_data", result.Status)
	}
	if result.Charts != nil {
		t.Fatal("no_data render must carry no charts")
	}
}

func TestService_RenderNoSelection(t *testing.T) {
	service := newTestService(t, &stubSource{docs: testDocs(t)})
	sess := service.Session("")
	ctx := context.Background()

	if err := service.ToggleAll(ctx, sess, false); err != nil {
		t.Fatalf("toggle all: %v", err)
	}
	result, err := service.Render(ctx, sess)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.Status != StatusNoSelection {
		t.Fatalf("status = %s, want no_selection", result.Status)
	}
	if result.Message == "" {
		t.Fatal("no_selection render must carry guidance")
	}
}

func TestService_RenderUnavailable(t *testing.T) {
	service := newTestService(t, &stubSource{err: records.ErrUnavailable})
	_, err := service.Render(context.Background(), service.Session(""))
	if !errors.Is(err, records.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestService_SetDateRangeRejectsInverted(t *testing.T) {
	service := newTestService(t, &stubSource{docs: testDocs(t)})
	sess := service.Session("")
	ctx := context.Background()

	err := service.SetDateRange(ctx, sess, testDay(t, "2024-01-02"), testDay(t, "2024-01-01"))
	if !errors.Is(err, dashboard.ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}

	result, err := service.Render(ctx, sess)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.StartDate != "2024-01-01" || result.EndDate != "2024-01-02" {
		t.Fatalf("range = %s..%s, a rejected range must not move it", result.StartDate, result.EndDate)
	}
}

func TestService_SetValueModeCarriesState(t *testing.T) {
	source := &stubSource{docs: testDocs(t)}
	service := newTestService(t, source)
	sess := service.Session("")
	ctx := context.Background()

	if err := service.ToggleAll(ctx, sess, true); err != nil {
		t.Fatalf("toggle all: %v", err)
	}
	if err := service.SetValueMode(ctx, sess, records.ModeProvisional); err != nil {
		t.Fatalf("set mode: %v", err)
	}

	result, err := service.Render(ctx, sess)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.Mode != records.ModeProvisional {
		t.Fatalf("mode = %s, want provisional", result.Mode)
	}
	if len(result.Catalog) != 2 {
		t.Fatalf("catalog = %v, want devA and devB in provisional mode", result.Catalog)
	}
	if !result.AllSelected {
		t.Fatal("all-selected intent must carry into the new mode's catalog")
	}
	if source.calls != 1 {
		t.Fatalf("source calls = %d, a mode switch must not refetch", source.calls)
	}
}

func TestService_SetValueModeRejectsUnknown(t *testing.T) {
	service := newTestService(t, &stubSource{docs: testDocs(t)})
	sess := service.Session("")
	if err := service.SetValueMode(context.Background(), sess, records.ValueMode("weekly")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSessionStore_GetAndExpiry(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(30*time.Minute, WithSessionClock(func() time.Time { return current }))

	sess := store.Create(records.ModeCorrected)
	if sess.ID == "" {
		t.Fatal("session ID must be non-empty")
	}
	if got, ok := store.Get(sess.ID); !ok || got != sess {
		t.Fatal("expected to get the created session back")
	}

	current = current.Add(20 * time.Minute)
	if _, ok := store.Get(sess.ID); !ok {
		t.Fatal("session touched within TTL must survive")
	}

	current = current.Add(31 * time.Minute)
	if _, ok := store.Get(sess.ID); ok {
		t.Fatal("idle session past TTL must expire")
	}
	if store.Len() != 0 {
		t.Fatalf("store length = %d, want 0 after sweep", store.Len())
	}
}

func TestSessionStore_UnknownID(t *testing.T) {
	store := NewSessionStore(time.Hour)
	if _, ok := store.Get("nope"); ok {
		t.Fatal("unknown ID must miss")
	}
	if _, ok := store.Get(""); ok {
		t.Fatal("empty ID must miss")
	}
}
