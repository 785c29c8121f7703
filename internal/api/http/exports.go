package apihttp

import (
	"errors"
	"net/http"
	"time"

	entryapp "wastetrack-cloud/internal/entries/application"
	entries "wastetrack-cloud/internal/entries/domain"
	"wastetrack-cloud/internal/observability/metrics"
	"wastetrack-cloud/internal/reports"
)

// ExportsHandler serves report downloads.
type ExportsHandler struct {
	service *entryapp.Service
}

// NewExportsHandler constructs an exports handler.
func NewExportsHandler(service *entryapp.Service) (*ExportsHandler, error) {
	if service == nil {
		return nil, errors.New("api: nil entry service")
	}
	return &ExportsHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/exports/{entries.csv,summary.xlsx,summary.pdf}.
func (h *ExportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/exports/entries.csv":
		h.handleEntriesCSV(w, r)
	case "/api/v1/exports/summary.xlsx":
		h.handleSummary(w, r, "xlsx")
	case "/api/v1/exports/summary.pdf":
		h.handleSummary(w, r, "pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ExportsHandler) handleEntriesCSV(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	list, err := h.service.WasteEntries(r.Context(), entries.Filter{})
	if err != nil {
		metrics.ObserveReportExport("csv", metrics.ResultError, time.Since(started))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	unit := h.displayUnit(r)
	body, err := reports.BuildEntriesCSV(list, unit)
	if err != nil {
		metrics.ObserveReportExport("csv", metrics.ResultError, time.Since(started))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ObserveReportExport("csv", metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="waste-entries.csv"`)
	_, _ = w.Write(body)
}

func (h *ExportsHandler) handleSummary(w http.ResponseWriter, r *http.Request, format string) {
	started := time.Now()
	rng := parseRange(r, entries.RangeWeek)
	if !rng.Valid() {
		WriteError(w, http.StatusBadRequest, "unknown range")
		return
	}
	snapshot, ok, err := h.service.Snapshot(r.Context())
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(started))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		snapshot, err = h.service.RefreshSnapshot(r.Context(), "export")
		if err != nil {
			metrics.ObserveReportExport(format, metrics.ResultError, time.Since(started))
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	series, err := h.service.Series(r.Context(), rng)
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(started))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary := reports.Summary{
		Snapshot: snapshot,
		Series:   series,
		Range:    rng,
		Unit:     h.displayUnit(r),
	}

	var body []byte
	var contentType, filename string
	switch format {
	case "xlsx":
		body, err = reports.BuildSummaryXLSX(summary)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "waste-summary.xlsx"
	case "pdf":
		body, err = reports.BuildSummaryPDF(summary)
		contentType = "application/pdf"
		filename = "waste-summary.pdf"
	default:
		WriteError(w, http.StatusNotFound, "unknown format")
		return
	}
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(started))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(started))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(body)
}

func (h *ExportsHandler) displayUnit(r *http.Request) entries.Unit {
	if raw := r.URL.Query().Get("units"); raw == string(entries.UnitPounds) {
		return entries.UnitPounds
	} else if raw != "" {
		return entries.UnitKilograms
	}
	prefs, err := h.service.Preferences(r.Context())
	if err != nil {
		return entries.UnitKilograms
	}
	return prefs.Units
}
