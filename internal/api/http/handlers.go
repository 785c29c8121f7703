package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	analytics "wastetrack-cloud/internal/analytics/domain"
	"wastetrack-cloud/internal/auth"
	entryapp "wastetrack-cloud/internal/entries/application"
	entries "wastetrack-cloud/internal/entries/domain"
	"wastetrack-cloud/internal/remote"
)

const fallbackUserID = "user_1"

// DashboardHandler serves the derived dashboard document.
type DashboardHandler struct {
	service  *entryapp.Service
	provider *remote.Provider
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(service *entryapp.Service, provider *remote.Provider) (*DashboardHandler, error) {
	if service == nil {
		return nil, errors.New("api: nil entry service")
	}
	if provider == nil {
		return nil, errors.New("api: nil snapshot provider")
	}
	return &DashboardHandler{service: service, provider: provider}, nil
}

// ServeHTTP handles GET /api/v1/dashboard. The read never fails: local
// snapshot, then remote, then mock.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snapshot := h.provider.Resolve(r.Context())
	unit := h.resolveUnit(r)
	WriteSuccess(w, convertSnapshot(snapshot, unit))
}

func (h *DashboardHandler) resolveUnit(r *http.Request) entries.Unit {
	if raw := r.URL.Query().Get("units"); raw != "" {
		if raw == string(entries.UnitPounds) {
			return entries.UnitPounds
		}
		return entries.UnitKilograms
	}
	prefs, err := h.service.Preferences(r.Context())
	if err != nil {
		return entries.UnitKilograms
	}
	return prefs.Units
}

// convertSnapshot rescales every weight field into the display unit. Rates
// and trend are unit-free and pass through.
func convertSnapshot(snap analytics.Snapshot, unit entries.Unit) analytics.Snapshot {
	if unit != entries.UnitPounds {
		return snap
	}
	snap.TodayRecycled = unit.FromKilograms(snap.TodayRecycled)
	snap.TodayWaste = unit.FromKilograms(snap.TodayWaste)
	snap.MonthlyLandfillTotal = unit.FromKilograms(snap.MonthlyLandfillTotal)
	snap.MonthlyRecyclingTotal = unit.FromKilograms(snap.MonthlyRecyclingTotal)
	snap.TotalLandfillWeight = unit.FromKilograms(snap.TotalLandfillWeight)
	snap.TotalRecyclingWeight = unit.FromKilograms(snap.TotalRecyclingWeight)
	snap.PendingLandfillWeight = unit.FromKilograms(snap.PendingLandfillWeight)
	snap.PendingRecyclingWeight = unit.FromKilograms(snap.PendingRecyclingWeight)
	converted := make(map[string]float64, len(snap.CategoryTotals))
	for category, weight := range snap.CategoryTotals {
		converted[category] = unit.FromKilograms(weight)
	}
	snap.CategoryTotals = converted
	return snap
}

// SeriesHandler serves the bucketed chart series.
type SeriesHandler struct {
	service *entryapp.Service
}

// NewSeriesHandler constructs a series handler.
func NewSeriesHandler(service *entryapp.Service) (*SeriesHandler, error) {
	if service == nil {
		return nil, errors.New("api: nil entry service")
	}
	return &SeriesHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/dashboard/series.
func (h *SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rng := parseRange(r, entries.RangeWeek)
	if !rng.Valid() {
		WriteError(w, http.StatusBadRequest, "unknown range")
		return
	}
	series, err := h.service.Series(r.Context(), rng)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, series)
}

func parseRange(r *http.Request, fallback entries.TimeRange) entries.TimeRange {
	raw := r.URL.Query().Get("range")
	if raw == "" {
		return fallback
	}
	return entries.TimeRange(raw)
}

// WasteEntriesHandler serves waste entry CRUD.
type WasteEntriesHandler struct {
	service *entryapp.Service
}

// NewWasteEntriesHandler constructs a waste entry handler.
func NewWasteEntriesHandler(service *entryapp.Service) (*WasteEntriesHandler, error) {
	if service == nil {
		return nil, errors.New("api: nil entry service")
	}
	return &WasteEntriesHandler{service: service}, nil
}

// ServeHTTP handles /api/v1/waste-entries and /api/v1/waste-entries/{id}.
func (h *WasteEntriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/waste-entries")
	id = strings.TrimPrefix(id, "/")
	switch {
	case id == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case id == "" && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case id == "" && r.Method == http.MethodDelete:
		h.handleBulkDelete(w, r)
	case id != "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *WasteEntriesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.service.WasteEntries(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, list)
}

func (h *WasteEntriesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var entry entries.WasteEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid entry body")
		return
	}
	if entry.UserID == "" {
		entry.UserID = requestUserID(r)
	}
	created, err := h.service.AddWasteEntry(r.Context(), entry)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteCreated(w, created)
}

func (h *WasteEntriesHandler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	removed, err := h.service.DeleteWasteEntries(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, map[string]int{"removed": removed})
}

func (h *WasteEntriesHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteWasteEntry(r.Context(), id); err != nil {
		if errors.Is(err, entries.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "entry not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, map[string]string{"id": id})
}

func filterFromQuery(r *http.Request) (entries.Filter, error) {
	var filter entries.Filter
	query := r.URL.Query()
	if raw := query.Get("category"); raw != "" {
		category := entries.Category(raw)
		if !category.Valid() {
			return entries.Filter{}, errors.New("unknown category")
		}
		filter.Category = category
	}
	if raw := query.Get("range"); raw != "" {
		rng := entries.TimeRange(raw)
		if !rng.Valid() {
			return entries.Filter{}, errors.New("unknown range")
		}
		filter.TimeRange = rng
	}
	return filter, nil
}

func requestUserID(r *http.Request) string {
	if userID := auth.UserIDFromContext(r.Context()); userID != "" {
		return userID
	}
	return fallbackUserID
}

// LandfillEntriesHandler serves landfill entry CRUD.
type LandfillEntriesHandler struct {
	service *entryapp.Service
}

// NewLandfillEntriesHandler constructs a landfill entry handler.
func NewLandfillEntriesHandler(service *entryapp.Service) (*LandfillEntriesHandler, error) {
	if service == nil {
		return nil, errors.New("api: nil entry service")
	}
	return &LandfillEntriesHandler{service: service}, nil
}

// ServeHTTP handles /api/v1/landfill-entries and subroutes.
func (h *LandfillEntriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/landfill-entries")
	id = strings.TrimPrefix(id, "/")
	switch {
	case id == "" && r.Method == http.MethodGet:
		list, err := h.service.LandfillEntries(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteSuccess(w, list)
	case id == "" && r.Method == http.MethodPost:
		var entry entries.LandfillEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid entry body")
			return
		}
		if entry.UserID == "" {
			entry.UserID = requestUserID(r)
		}
		created, err := h.service.AddLandfillEntry(r.Context(), entry)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteCreated(w, created)
	case id != "" && r.Method == http.MethodPut:
		var entry entries.LandfillEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid entry body")
			return
		}
		entry.ID = id
		if entry.UserID == "" {
			entry.UserID = requestUserID(r)
		}
		updated, err := h.service.UpdateLandfillEntry(r.Context(), entry)
		if err != nil {
			writeEntryError(w, err)
			return
		}
		WriteSuccess(w, updated)
	case id != "" && r.Method == http.MethodDelete:
		if err := h.service.DeleteLandfillEntry(r.Context(), id); err != nil {
			writeEntryError(w, err)
			return
		}
		WriteSuccess(w, map[string]string{"id": id})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// RecyclingEntriesHandler serves recycling entry CRUD.
type RecyclingEntriesHandler struct {
	service *entryapp.Service
}

// NewRecyclingEntriesHandler constructs a recycling entry handler.
func NewRecyclingEntriesHandler(service *entryapp.Service) (*RecyclingEntriesHandler, error) {
	if service == nil {
		return nil, errors.New("api: nil entry service")
	}
	return &RecyclingEntriesHandler{service: service}, nil
}

// ServeHTTP handles /api/v1/recycling-entries and subroutes.
func (h *RecyclingEntriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/recycling-entries")
	id = strings.TrimPrefix(id, "/")
	switch {
	case id == "" && r.Method == http.MethodGet:
		list, err := h.service.RecyclingEntries(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteSuccess(w, list)
	case id == "" && r.Method == http.MethodPost:
		var entry entries.RecyclingEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid entry body")
			return
		}
		if entry.UserID == "" {
			entry.UserID = requestUserID(r)
		}
		created, err := h.service.AddRecyclingEntry(r.Context(), entry)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteCreated(w, created)
	case id != "" && r.Method == http.MethodPut:
		var entry entries.RecyclingEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid entry body")
			return
		}
		entry.ID = id
		if entry.UserID == "" {
			entry.UserID = requestUserID(r)
		}
		updated, err := h.service.UpdateRecyclingEntry(r.Context(), entry)
		if err != nil {
			writeEntryError(w, err)
			return
		}
		WriteSuccess(w, updated)
	case id != "" && r.Method == http.MethodDelete:
		if err := h.service.DeleteRecyclingEntry(r.Context(), id); err != nil {
			writeEntryError(w, err)
			return
		}
		WriteSuccess(w, map[string]string{"id": id})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeEntryError(w http.ResponseWriter, err error) {
	if errors.Is(err, entries.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "entry not found")
		return
	}
	if errors.Is(err, entries.ErrInvalidWeight) || errors.Is(err, entries.ErrEmptyUserID) || errors.Is(err, entries.ErrUnknownCategory) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, err.Error())
}

// PreferencesHandler serves the user preference document.
type PreferencesHandler struct {
	service *entryapp.Service
}

// NewPreferencesHandler constructs a preferences handler.
func NewPreferencesHandler(service *entryapp.Service) (*PreferencesHandler, error) {
	if service == nil {
		return nil, errors.New("api: nil entry service")
	}
	return &PreferencesHandler{service: service}, nil
}

// ServeHTTP handles GET/PUT /api/v1/users/preferences.
func (h *PreferencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		prefs, err := h.service.Preferences(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteSuccess(w, prefs)
	case http.MethodPut:
		var prefs entries.Preferences
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid preferences body")
			return
		}
		if err := h.service.SavePreferences(r.Context(), prefs); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteSuccess(w, prefs)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// AdminHandler serves destructive development helpers.
type AdminHandler struct {
	service *entryapp.Service
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(service *entryapp.Service) (*AdminHandler, error) {
	if service == nil {
		return nil, errors.New("api: nil entry service")
	}
	return &AdminHandler{service: service}, nil
}

// ServeHTTP handles POST /api/v1/admin/seed and /api/v1/admin/clear.
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/admin/seed":
		if err := h.service.SeedSampleData(r.Context()); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteSuccess(w, map[string]string{"status": "seeded"})
	case "/api/v1/admin/clear":
		if err := h.service.ClearAll(r.Context()); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteSuccess(w, map[string]string{"status": "cleared"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
