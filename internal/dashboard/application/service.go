package application

import (
	"context"
	"errors"
	"log"
	"time"

	dashboard "feedboard/internal/dashboard/domain"
	"feedboard/internal/observability/metrics"
	recordsapp "feedboard/internal/records/application"

	records "feedboard/internal/records/domain"
)

// Status classifies a render outcome. Only source failures are errors;
// everything else is a user-visible outcome of a healthy pass.
type Status string

const (
	StatusOK           Status = "ok"
	StatusNoData       Status = "no_data"
	StatusNoSelection  Status = "no_selection"
	StatusInvalidRange Status = "invalid_range"
)

const dateLayout = "2006-01-02"

// RenderResult is the dashboard payload for one interaction.
type RenderResult struct {
	Status  Status            `json:"status"`
	Message string            `json:"message,omitempty"`
	Mode    records.ValueMode `json:"value_mode"`

	MinDate   string `json:"min_date,omitempty"`
	MaxDate   string `json:"max_date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`

	Catalog     []string `json:"catalog"`
	Selection   []string `json:"selection"`
	AllSelected bool     `json:"all_selected"`
	DroppedRows int      `json:"dropped_rows,omitempty"`

	Charts  *dashboard.Charts      `json:"charts,omitempty"`
	Preview []dashboard.PreviewRow `json:"preview,omitempty"`
}

// Service runs one synchronous render pass per user interaction:
// load snapshot, bind filter state, filter, aggregate.
type Service struct {
	loader      *recordsapp.Loader
	sessions    *SessionStore
	defaultMode records.ValueMode
	logger      *log.Logger
}

// NewService constructs the dashboard service.
func NewService(loader *recordsapp.Loader, sessions *SessionStore, defaultMode records.ValueMode, logger *log.Logger) (*Service, error) {
	if loader == nil {
		return nil, errors.New("dashboard service: nil loader")
	}
	if sessions == nil {
		return nil, errors.New("dashboard service: nil session store")
	}
	if _, ok := records.ParseValueMode(string(defaultMode)); !ok {
		defaultMode = records.ModeCorrected
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{loader: loader, sessions: sessions, defaultMode: defaultMode, logger: logger}, nil
}

// Session returns the session for id, minting a fresh one when id is empty
// or unknown.
func (s *Service) Session(id string) *Session {
	if sess, ok := s.sessions.Get(id); ok {
		return sess
	}
	return s.sessions.Create(s.defaultMode)
}

// Render produces the dashboard payload for the session's current state.
func (s *Service) Render(ctx context.Context, sess *Session) (RenderResult, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	result, err := s.renderLocked(ctx, sess)
	outcome := string(result.Status)
	if err != nil {
		outcome = metrics.ResultError
	}
	metrics.ObserveRender(outcome, time.Since(start))
	return result, err
}

func (s *Service) renderLocked(ctx context.Context, sess *Session) (RenderResult, error) {
	dropped, err := s.ensureStateLocked(ctx, sess)
	if err != nil {
		return RenderResult{}, err
	}

	result := s.describeLocked(sess)
	result.DroppedRows = dropped

	minDate, _ := sess.state.Bounds()
	if minDate.IsZero() {
		result.Status = StatusNoData
		result.Message = "no data available"
		return result, nil
	}
	if len(result.Selection) == 0 {
		result.Status = StatusNoSelection
		result.Message = "select one or more devices"
		return result, nil
	}

	report := dashboard.BuildReport(sess.state.FilteredRecords())
	if report.Empty() {
		result.Status = StatusNoData
		result.Message = "no records in the selected range"
		return result, nil
	}

	charts := dashboard.BuildCharts(report, sess.mode)
	result.Status = StatusOK
	result.Charts = &charts
	result.Preview = report.Preview
	return result, nil
}

// SetDateRange moves the session's date range. ErrInvalidRange and
// ErrOutOfBounds pass through for the handler to map; the filter state stays
// untouched in both cases.
func (s *Service) SetDateRange(ctx context.Context, sess *Session, start, end time.Time) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := s.ensureStateLocked(ctx, sess); err != nil {
		return err
	}
	return sess.state.SetDateRange(start, end)
}

// ToggleDevice adds or removes one device from the session's selection.
func (s *Service) ToggleDevice(ctx context.Context, sess *Session, deviceID string, checked bool) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := s.ensureStateLocked(ctx, sess); err != nil {
		return err
	}
	sess.state.ToggleDevice(deviceID, checked)
	return nil
}

// ToggleAll selects or clears the whole catalog for the session.
func (s *Service) ToggleAll(ctx context.Context, sess *Session, checked bool) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := s.ensureStateLocked(ctx, sess); err != nil {
		return err
	}
	sess.state.ToggleAll(checked)
	return nil
}

// SetValueMode switches between provisional and corrected values. The date
// range and selection carry over; devices without data in the new mode fall
// out through the usual prune.
func (s *Service) SetValueMode(ctx context.Context, sess *Session, mode records.ValueMode) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, ok := records.ParseValueMode(string(mode)); !ok {
		return errors.New("dashboard service: unknown value mode")
	}
	if mode == sess.mode {
		return nil
	}

	dataset, _, err := s.loader.Dataset(ctx, mode)
	if err != nil {
		return err
	}
	sess.mode = mode
	sess.state = rebuildState(sess.state, dataset)
	return nil
}

// Report returns the filtered report for export, along with the session's
// value mode.
func (s *Service) Report(ctx context.Context, sess *Session) (dashboard.Report, records.ValueMode, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := s.ensureStateLocked(ctx, sess); err != nil {
		return dashboard.Report{}, sess.mode, err
	}
	return dashboard.BuildReport(sess.state.FilteredRecords()), sess.mode, nil
}

func (s *Service) ensureStateLocked(ctx context.Context, sess *Session) (int, error) {
	dataset, dropped, err := s.loader.Dataset(ctx, sess.mode)
	if err != nil {
		return 0, err
	}
	if sess.state == nil {
		// Nothing selected on first render; the prompt asks the user to pick.
		sess.state = dashboard.NewFilterState(dataset)
		return dropped, nil
	}
	sess.state.Rebind(dataset)
	return dropped, nil
}

func (s *Service) describeLocked(sess *Session) RenderResult {
	result := RenderResult{
		Mode:        sess.mode,
		Catalog:     sess.state.Catalog(),
		Selection:   sess.state.EffectiveSelection(),
		AllSelected: sess.state.AllSelected(),
	}
	minDate, maxDate := sess.state.Bounds()
	if !minDate.IsZero() {
		result.MinDate = minDate.Format(dateLayout)
		result.MaxDate = maxDate.Format(dateLayout)
	}
	start, end := sess.state.DateRange()
	if !start.IsZero() {
		result.StartDate = start.Format(dateLayout)
		result.EndDate = end.Format(dateLayout)
	}
	return result
}

// rebuildState rebinds carried-over range and selection onto a dataset from
// a different value mode.
func rebuildState(prev *dashboard.FilterState, dataset *records.Dataset) *dashboard.FilterState {
	next := dashboard.NewFilterState(dataset)
	if prev == nil {
		return next
	}

	minDate, maxDate := dataset.Bounds()
	if !minDate.IsZero() {
		start, end := prev.DateRange()
		if start.Before(minDate) {
			start = minDate
		}
		if end.After(maxDate) {
			end = maxDate
		}
		if !start.After(end) {
			_ = next.SetDateRange(start, end)
		}
	}
	if prev.AllSelected() {
		next.ToggleAll(true)
		return next
	}
	for _, device := range prev.SelectedDevices() {
		next.ToggleDevice(device, true)
	}
	return next
}
