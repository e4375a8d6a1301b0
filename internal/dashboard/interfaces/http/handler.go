package dashhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"feedboard/internal/dashboard/application"

	dashboard "feedboard/internal/dashboard/domain"
	records "feedboard/internal/records/domain"
)

const (
	sessionHeader = "X-Session-ID"
	dateLayout    = "2006-01-02"
)

// DashboardHandler serves GET /api/v1/dashboard.
type DashboardHandler struct {
	service *application.Service
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(service *application.Service) (*DashboardHandler, error) {
	if service == nil {
		return nil, errors.New("dashboard handler: nil service")
	}
	return &DashboardHandler{service: service}, nil
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess := h.service.Session(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, sess.ID)

	result, err := h.service.Render(r.Context(), sess)
	if err != nil {
		writeRenderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecordsHandler serves GET /api/v1/records, the raw filtered preview.
type RecordsHandler struct {
	service *application.Service
}

// NewRecordsHandler constructs a RecordsHandler.
func NewRecordsHandler(service *application.Service) (*RecordsHandler, error) {
	if service == nil {
		return nil, errors.New("records handler: nil service")
	}
	return &RecordsHandler{service: service}, nil
}

func (h *RecordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess := h.service.Session(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, sess.ID)

	report, mode, err := h.service.Report(r.Context(), sess)
	if err != nil {
		writeRenderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"value_mode": mode,
		"records":    report.Preview,
	})
}

// FiltersHandler serves POST /api/v1/filters/{date-range,devices,select-all,value-mode}.
type FiltersHandler struct {
	service *application.Service
}

// NewFiltersHandler constructs a FiltersHandler.
func NewFiltersHandler(service *application.Service) (*FiltersHandler, error) {
	if service == nil {
		return nil, errors.New("filters handler: nil service")
	}
	return &FiltersHandler{service: service}, nil
}

func (h *FiltersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess := h.service.Session(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, sess.ID)

	switch r.URL.Path {
	case "/api/v1/filters/date-range":
		h.handleDateRange(w, r, sess)
	case "/api/v1/filters/devices":
		h.handleDevices(w, r, sess)
	case "/api/v1/filters/select-all":
		h.handleSelectAll(w, r, sess)
	case "/api/v1/filters/value-mode":
		h.handleValueMode(w, r, sess)
	default:
		http.NotFound(w, r)
	}
}

func (h *FiltersHandler) handleDateRange(w http.ResponseWriter, r *http.Request, sess *application.Session) {
	var req struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		http.Error(w, "start must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		http.Error(w, "end must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}

	err = h.service.SetDateRange(r.Context(), sess, start, end)
	switch {
	case errors.Is(err, dashboard.ErrInvalidRange):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"status":  application.StatusInvalidRange,
			"message": "start date must not be after end date; previous range kept",
		})
		return
	case errors.Is(err, dashboard.ErrOutOfBounds):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"status":  application.StatusInvalidRange,
			"message": "dates must lie within the loaded data's range",
		})
		return
	case err != nil:
		writeRenderError(w, err)
		return
	}
	h.renderAfterMutation(w, r, sess)
}

func (h *FiltersHandler) handleDevices(w http.ResponseWriter, r *http.Request, sess *application.Session) {
	var req struct {
		DeviceID string `json:"device_id"`
		Checked  bool   `json:"checked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DeviceID == "" {
		http.Error(w, "device_id is required", http.StatusBadRequest)
		return
	}
	if err := h.service.ToggleDevice(r.Context(), sess, req.DeviceID, req.Checked); err != nil {
		writeRenderError(w, err)
		return
	}
	h.renderAfterMutation(w, r, sess)
}

func (h *FiltersHandler) handleSelectAll(w http.ResponseWriter, r *http.Request, sess *application.Session) {
	var req struct {
		Checked bool `json:"checked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.ToggleAll(r.Context(), sess, req.Checked); err != nil {
		writeRenderError(w, err)
		return
	}
	h.renderAfterMutation(w, r, sess)
}

func (h *FiltersHandler) handleValueMode(w http.ResponseWriter, r *http.Request, sess *application.Session) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	mode, ok := records.ParseValueMode(req.Mode)
	if !ok {
		http.Error(w, "mode must be provisional or corrected", http.StatusBadRequest)
		return
	}
	if err := h.service.SetValueMode(r.Context(), sess, mode); err != nil {
		writeRenderError(w, err)
		return
	}
	h.renderAfterMutation(w, r, sess)
}

func (h *FiltersHandler) renderAfterMutation(w http.ResponseWriter, r *http.Request, sess *application.Session) {
	result, err := h.service.Render(r.Context(), sess)
	if err != nil {
		writeRenderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRenderError(w http.ResponseWriter, err error) {
	if errors.Is(err, records.ErrUnavailable) {
		http.Error(w, "data source unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "render error", http.StatusInternalServerError)
}
