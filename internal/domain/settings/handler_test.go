package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caresuite/claims-api/internal/platform/auth"
	"github.com/caresuite/claims-api/internal/platform/db"
)

type memRepo struct {
	stored map[string]*LocationBillingSettings
}

func (m *memRepo) Get(ctx context.Context, locationID string) (*LocationBillingSettings, error) {
	if s, ok := m.stored[locationID]; ok {
		cp := *s
		return &cp, nil
	}
	return &LocationBillingSettings{LocationID: locationID, ClaimNumberPrefix: "CLM"}, nil
}

func (m *memRepo) Upsert(ctx context.Context, s *LocationBillingSettings) error {
	s.UpdatedAt = time.Now()
	cp := *s
	m.stored[s.LocationID] = &cp
	return nil
}

func newTestServer(repo Repository) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1", auth.DevAuthMiddleware(), db.LocationMiddleware("default"))
	NewHandler(repo).RegisterRoutes(api)
	return e
}

func TestGetSettings_Defaults(t *testing.T) {
	e := newTestServer(&memRepo{stored: map[string]*LocationBillingSettings{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	req.Header.Set("X-Location-ID", "loc-9")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got LocationBillingSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.LocationID != "loc-9" {
		t.Errorf("expected location loc-9, got %s", got.LocationID)
	}
	if got.ClaimNumberPrefix != "CLM" {
		t.Errorf("expected default prefix CLM, got %s", got.ClaimNumberPrefix)
	}
}

func TestUpdateSettings(t *testing.T) {
	repo := &memRepo{stored: map[string]*LocationBillingSettings{}}
	e := newTestServer(repo)

	body := `{"claim_number_prefix":"ACME","default_session_fee":175,"default_procedure_code":"90837"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Location-ID", "loc-9")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	stored := repo.stored["loc-9"]
	if stored == nil {
		t.Fatal("settings were not persisted")
	}
	if stored.ClaimNumberPrefix != "ACME" {
		t.Errorf("expected prefix ACME, got %s", stored.ClaimNumberPrefix)
	}
	if stored.DefaultSessionFee == nil || *stored.DefaultSessionFee != 175 {
		t.Error("expected default_session_fee 175")
	}
}

func TestUpdateSettings_EmptyPrefixRejected(t *testing.T) {
	e := newTestServer(&memRepo{stored: map[string]*LocationBillingSettings{}})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`{"claim_number_prefix":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateSettings_NegativeFeeRejected(t *testing.T) {
	e := newTestServer(&memRepo{stored: map[string]*LocationBillingSettings{}})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings",
		strings.NewReader(`{"claim_number_prefix":"CLM","default_session_fee":-5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
