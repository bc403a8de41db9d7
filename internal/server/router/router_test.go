package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository/memory"
	"github.com/mamadbah2/challans/internal/server/handlers"
	"github.com/mamadbah2/challans/internal/service/assets"
	"github.com/mamadbah2/challans/internal/service/catalog"
	"github.com/mamadbah2/challans/internal/service/challans"
	"github.com/mamadbah2/challans/internal/service/documents"
	"github.com/mamadbah2/challans/internal/service/reporting"
	"github.com/mamadbah2/challans/internal/service/tracker"
)

var today = time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)

type stubReminders struct {
	err error
}

func (s stubReminders) RunOverdueReminder(ctx context.Context) (models.OverdueDigest, error) {
	if s.err != nil {
		return models.OverdueDigest{}, s.err
	}
	return models.OverdueDigest{ID: "d1", Overdue: 1}, nil
}

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	clock := func() time.Time { return today }
	tr := tracker.New(store, nil, tracker.WithClock(clock))
	challanSvc := challans.NewService(store, "DSI", nil,
		challans.WithClock(clock),
		challans.WithChangeHook(func(ctx context.Context) { _ = tr.Refresh(ctx) }))
	catalogSvc := catalog.NewService(store, nil)
	assetSvc := assets.NewService(store, time.UTC, nil)
	reportingSvc := reporting.NewService(store, tr, nil)

	engine := New(Handlers{
		Challans:  handlers.NewChallanHandler(challanSvc, catalogSvc, documents.NewGenerator(t.TempDir(), nil), nil),
		Tracker:   handlers.NewTrackerHandler(tr, tracker.NewConfirmations(tr, 0), nil),
		Tracking:  handlers.NewTrackingHandler(assetSvc, nil),
		Dashboard: handlers.NewDashboardHandler(reportingSvc, stubReminders{}, store, nil),
		Projects:  handlers.NewProjectHandler(catalogSvc, nil),
		Clients:   handlers.NewClientHandler(catalogSvc, nil),
		Locations: handlers.NewLocationHandler(catalogSvc, nil),
		Assets:    handlers.NewAssetHandler(assetSvc, nil),
	}, nil)
	gin.SetMode(gin.TestMode)
	return &testServer{engine: engine, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func challanPath(dc string, suffix ...string) string {
	p := "/api/challans/" + url.PathEscape(dc)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func challanBody() map[string]any {
	return map[string]any{
		"prepared_by": "Ravi",
		"client":      "Acme Corp",
		"location":    "Pune",
		"items": []map[string]any{
			{"asset_name": "Splicer", "quantity": 1, "returnable": true, "expected_return_date": "2025-05-03"},
			{"asset_name": "Cable", "quantity": 10},
		},
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChallanLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/challans/next-number", nil)
	if rec.Code != http.StatusOK || decode[map[string]string](t, rec)["dc_number"] != "DSI/010525/001" {
		t.Fatalf("next-number = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/challans", challanBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	created := decode[models.Challan](t, rec)
	if created.DCNumber != "DSI/010525/001" {
		t.Fatalf("dc = %q", created.DCNumber)
	}

	rec = s.do(t, http.MethodGet, challanPath(created.DCNumber), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/challans?q=splicer", nil)
	if list := decode[[]models.Challan](t, rec); len(list) != 1 {
		t.Fatalf("list = %d", len(list))
	}

	update := challanBody()
	update["version"] = created.Version
	update["notes"] = "fragile"
	rec = s.do(t, http.MethodPut, challanPath(created.DCNumber), update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPut, challanPath(created.DCNumber), update)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update = %d", rec.Code)
	}

	updated, _ := s.store.GetChallan(context.Background(), created.DCNumber)
	rec = s.do(t, http.MethodDelete, challanPath(created.DCNumber, "items", updated.Items[1].ItemID), nil)
	if rec.Code != http.StatusOK || len(decode[models.Challan](t, rec).Items) != 1 {
		t.Fatalf("remove item = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodDelete, challanPath(created.DCNumber), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, challanPath(created.DCNumber), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", rec.Code)
	}
}

func TestChallanValidationErrors(t *testing.T) {
	s := newTestServer(t)

	body := challanBody()
	delete(body, "client")
	rec := s.do(t, http.MethodPost, "/api/challans", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if decode[map[string]string](t, rec)["error"] == "" {
		t.Fatal("missing error message")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/challans", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	out := httptest.NewRecorder()
	s.engine.ServeHTTP(out, req)
	if out.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d", out.Code)
	}
}

func TestChallanDocument(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/challans", challanBody())
	created := decode[models.Challan](t, rec)

	rec = s.do(t, http.MethodGet, challanPath(created.DCNumber, "document"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("document = %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != documents.ContentType {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="DSI-010525-001.xlsx"` {
		t.Fatalf("disposition = %q", cd)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open document: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(f.GetSheetName(0), "B3"); v != created.DCNumber {
		t.Fatalf("B3 = %q", v)
	}

	rec = s.do(t, http.MethodGet, challanPath(created.DCNumber, "document")+"?template=missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing template = %d", rec.Code)
	}
}

func TestTrackerReturnFlow(t *testing.T) {
	s := newTestServer(t)
	created := decode[models.Challan](t, s.do(t, http.MethodPost, "/api/challans", challanBody()))

	rec := s.do(t, http.MethodGet, "/api/tracker?q=acme", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("view = %d", rec.Code)
	}
	view := decode[struct {
		Groups []models.ReturnGroup `json:"groups"`
		Today  string               `json:"today"`
	}](t, rec)
	if len(view.Groups) != 1 || len(view.Groups[0].Items) != 1 || view.Today != "2025-05-01" {
		t.Fatalf("view = %+v", view)
	}
	if view.Groups[0].Summary.Badge != models.BadgeWarning {
		t.Fatalf("badge = %q", view.Groups[0].Summary.Badge)
	}

	key := models.ItemKey{DCNumber: created.DCNumber, ItemID: created.Items[0].ItemID}
	rec = s.do(t, http.MethodPost, "/api/tracker/returns", key)
	if rec.Code != http.StatusCreated {
		t.Fatalf("begin = %d %s", rec.Code, rec.Body.String())
	}
	pending := decode[tracker.Pending](t, rec)

	rec = s.do(t, http.MethodPost, "/api/tracker/returns/"+pending.Token+"/confirm", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm = %d %s", rec.Code, rec.Body.String())
	}
	if item := decode[models.ReturnableItem](t, rec); item.ReturnedDate != "2025-05-01" || item.ReturnNote != tracker.ReturnNote {
		t.Fatalf("item = %+v", item)
	}

	rec = s.do(t, http.MethodPost, "/api/tracker/returns/"+pending.Token+"/confirm", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("reconfirm = %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/tracker/returns", key)
	pending = decode[tracker.Pending](t, rec)
	rec = s.do(t, http.MethodDelete, "/api/tracker/returns/"+pending.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cancel = %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/tracker/returns", map[string]any{"item_id": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing dc_number = %d", rec.Code)
	}
}

func TestTrackerSeesExternalChangesAfterRefresh(t *testing.T) {
	s := newTestServer(t)
	created := decode[models.Challan](t, s.do(t, http.MethodPost, "/api/challans", challanBody()))

	if err := s.store.DeleteChallan(context.Background(), created.DCNumber); err != nil {
		t.Fatal(err)
	}
	if rec := s.do(t, http.MethodPost, "/api/tracker/refresh", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("refresh = %d", rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/api/tracker", nil)
	view := decode[struct {
		Groups []models.ReturnGroup `json:"groups"`
	}](t, rec)
	if len(view.Groups) != 0 {
		t.Fatalf("groups = %d, want 0", len(view.Groups))
	}
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/clients", map[string]any{"name": "Acme Corp"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client = %d %s", rec.Code, rec.Body.String())
	}
	client := decode[models.Client](t, rec)

	rec = s.do(t, http.MethodPost, "/api/clients", map[string]any{"name": "acme corp"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate client = %d", rec.Code)
	}

	client.Phone = "+91 1234"
	rec = s.do(t, http.MethodPut, "/api/clients/"+client.ID, client)
	if rec.Code != http.StatusOK {
		t.Fatalf("update client = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/projects", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
		t.Fatalf("empty projects = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/locations", map[string]any{"name": "Pune"})
	loc := decode[models.Location](t, rec)
	if rec = s.do(t, http.MethodDelete, "/api/locations/"+loc.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete location = %d", rec.Code)
	}
	if rec = s.do(t, http.MethodGet, "/api/locations/"+loc.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted location = %d", rec.Code)
	}
}

func TestAssetAndTrackingRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/assets", map[string]any{"asset_id": "LAP-1", "name": "Laptop"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create asset = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/tracking-records", map[string]any{
		"asset_id": "LAP-1", "transaction_type": "outward", "vendor_sent_to": "Acme Repairs", "issued_by": "Ravi",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record = %d %s", rec.Code, rec.Body.String())
	}
	record := decode[models.TrackingRecord](t, rec)

	rec = s.do(t, http.MethodGet, "/api/assets/LAP-1/tracking", nil)
	if list := decode[[]models.TrackingRecord](t, rec); len(list) != 1 {
		t.Fatalf("history = %d", len(list))
	}
	rec = s.do(t, http.MethodGet, "/api/tracking-records?type=inward", nil)
	if list := decode[[]models.TrackingRecord](t, rec); len(list) != 0 {
		t.Fatalf("inward = %d", len(list))
	}

	if rec = s.do(t, http.MethodDelete, "/api/assets/LAP-1", nil); rec.Code != http.StatusConflict {
		t.Fatalf("delete referenced asset = %d", rec.Code)
	}
	if rec = s.do(t, http.MethodDelete, "/api/tracking-records/"+record.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete record = %d", rec.Code)
	}
	if rec = s.do(t, http.MethodDelete, "/api/assets/LAP-1", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete asset = %d", rec.Code)
	}
	if rec = s.do(t, http.MethodGet, "/api/assets/LAP-1/tracking", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("history of deleted asset = %d", rec.Code)
	}
}

func TestDashboardAndReminders(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/challans", challanBody())

	rec := s.do(t, http.MethodGet, "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard = %d", rec.Code)
	}
	dash := decode[models.Dashboard](t, rec)
	if dash.Counts.Challans != 1 || dash.Returnables.Total != 1 || dash.Returnables.DueSoon != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}

	rec = s.do(t, http.MethodPost, "/api/reminders/run", nil)
	if rec.Code != http.StatusOK || decode[models.OverdueDigest](t, rec).ID != "d1" {
		t.Fatalf("run reminder = %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/reminders?limit=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit = %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/reminders", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
		t.Fatalf("reminders = %d %s", rec.Code, rec.Body.String())
	}
}

func TestReminderFailureIsBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	tr := tracker.New(store, nil)
	h := handlers.NewDashboardHandler(reporting.NewService(store, tr, nil), stubReminders{err: errors.New("store down")}, store, nil)

	r := gin.New()
	r.POST("/run", h.RunReminder)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}
