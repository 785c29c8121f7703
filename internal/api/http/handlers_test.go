package apihttp

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	analyticsapp "wastetrack-cloud/internal/analytics/application"
	analytics "wastetrack-cloud/internal/analytics/domain"
	entryapp "wastetrack-cloud/internal/entries/application"
	entries "wastetrack-cloud/internal/entries/domain"
	"wastetrack-cloud/internal/entries/infrastructure/kvstore"
	"wastetrack-cloud/internal/entries/infrastructure/memory"
	"wastetrack-cloud/internal/remote"
)

func newTestService(t *testing.T) *entryapp.Service {
	t.Helper()
	store, err := kvstore.NewStore(memory.NewBackend(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	service, err := entryapp.NewService(store, analyticsapp.NewAggregator(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder, data any) Envelope {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, resp.Body.String())
	}
	if data != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return Envelope{Success: env.Success, Error: env.Error}
}

func TestDashboardFallsBackToMock(t *testing.T) {
	service := newTestService(t)
	provider, err := remote.NewProvider(service, nil, nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	handler, err := NewDashboardHandler(service, provider)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status: got %d", resp.Code)
	}
	var snap analytics.Snapshot
	env := decodeEnvelope(t, resp, &snap)
	if !env.Success {
		t.Fatalf("envelope: %+v", env)
	}
	if snap.CurrentRate != 83.0 {
		t.Fatalf("expected mock snapshot, got %+v", snap)
	}
}

func TestDashboardUnitConversion(t *testing.T) {
	service := newTestService(t)
	provider, err := remote.NewProvider(service, nil, nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	handler, err := NewDashboardHandler(service, provider)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?units=lb", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	var snap analytics.Snapshot
	decodeEnvelope(t, resp, &snap)
	want := 15.6 * entries.PoundsPerKilogram
	if math.Abs(snap.TodayRecycled-want) > 1e-9 {
		t.Fatalf("today recycled: got %v, want %v", snap.TodayRecycled, want)
	}
	// Rate is unit-free.
	if snap.CurrentRate != 83.0 {
		t.Fatalf("rate changed by conversion: %v", snap.CurrentRate)
	}
}

func TestWasteEntriesCreateAndList(t *testing.T) {
	service := newTestService(t)
	handler, err := NewWasteEntriesHandler(service)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	body := `{"category":"pet","weight":2.5,"notes":"bottle"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/waste-entries", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create status: got %d (%s)", resp.Code, resp.Body.String())
	}
	var created entries.WasteEntry
	decodeEnvelope(t, resp, &created)
	if created.ID == "" || !created.Recyclable {
		t.Fatalf("created: %+v", created)
	}
	if created.UserID != "user_1" {
		t.Fatalf("fallback user: got %q", created.UserID)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/waste-entries?category=pet", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	var list []entries.WasteEntry
	decodeEnvelope(t, resp, &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list: %+v", list)
	}
}

func TestWasteEntriesCreateRejectsBadWeight(t *testing.T) {
	handler, err := NewWasteEntriesHandler(newTestService(t))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/waste-entries", strings.NewReader(`{"category":"pet","weight":-2}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", resp.Code)
	}
	env := decodeEnvelope(t, resp, nil)
	if env.Success || env.Error == "" {
		t.Fatalf("envelope: %+v", env)
	}
}

func TestWasteEntriesDeleteByID(t *testing.T) {
	service := newTestService(t)
	handler, err := NewWasteEntriesHandler(service)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/waste-entries/ghost", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("ghost delete status: got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/waste-entries", strings.NewReader(`{"category":"glass","weight":1}`))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	var created entries.WasteEntry
	decodeEnvelope(t, resp, &created)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/waste-entries/"+created.ID, nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete status: got %d", resp.Code)
	}
}

func TestWasteEntriesBulkDeleteByFilter(t *testing.T) {
	service := newTestService(t)
	handler, err := NewWasteEntriesHandler(service)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	for _, body := range []string{
		`{"category":"pet","weight":1}`,
		`{"category":"glass","weight":1}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/waste-entries", strings.NewReader(body))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("create status: got %d", resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/waste-entries?category=pet", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("bulk delete status: got %d", resp.Code)
	}
	var result map[string]int
	decodeEnvelope(t, resp, &result)
	if result["removed"] != 1 {
		t.Fatalf("removed: got %d", result["removed"])
	}
}

func TestSeriesRejectsUnknownRange(t *testing.T) {
	handler, err := NewSeriesHandler(newTestService(t))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/series?range=century", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", resp.Code)
	}
}

func TestSeriesDefaultsToWeek(t *testing.T) {
	handler, err := NewSeriesHandler(newTestService(t))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/series", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status: got %d", resp.Code)
	}
	var points []analytics.SeriesPoint
	decodeEnvelope(t, resp, &points)
	if len(points) != 7 {
		t.Fatalf("bucket count: got %d, want 7", len(points))
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	handler, err := NewPreferencesHandler(newTestService(t))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/preferences", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	var prefs entries.Preferences
	decodeEnvelope(t, resp, &prefs)
	if prefs.Units != entries.UnitKilograms {
		t.Fatalf("default units: got %s", prefs.Units)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/users/preferences", strings.NewReader(`{"units":"lb"}`))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("put status: got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/users/preferences", strings.NewReader(`{"units":"stone"}`))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad units status: got %d", resp.Code)
	}
}

func TestAdminSeedAndClear(t *testing.T) {
	service := newTestService(t)
	handler, err := NewAdminHandler(service)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	listHandler, err := NewWasteEntriesHandler(service)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/seed", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("seed status: got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/waste-entries", nil)
	resp = httptest.NewRecorder()
	listHandler.ServeHTTP(resp, req)
	var list []entries.WasteEntry
	decodeEnvelope(t, resp, &list)
	if len(list) != 5 {
		t.Fatalf("seeded count: got %d, want 5", len(list))
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/clear", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("clear status: got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/waste-entries", nil)
	resp = httptest.NewRecorder()
	listHandler.ServeHTTP(resp, req)
	list = nil
	decodeEnvelope(t, resp, &list)
	if len(list) != 0 {
		t.Fatalf("entries after clear: got %d", len(list))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/seed", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("get seed status: got %d", resp.Code)
	}
}
