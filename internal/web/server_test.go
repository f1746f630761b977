package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/snapshot"
	"github.com/faceguard/faceguard/internal/store/mock"
)

func newTestServer() *Server {
	return NewServer(mock.NewServerStore(), mock.NewKV(), "localhost", 0)
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestRoutes_SyncRoundTrip(t *testing.T) {
	st := mock.NewServerStore()
	st.Seed(snapshot.Snapshot{Identities: []identity.Identity{{ID: "Asha_001", Name: "Asha"}}})
	s := NewServer(st, mock.NewKV(), "localhost", 0)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sync?day=2025-06-02", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap snapshot.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Identities) != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRoutes_DestructiveOpsRequireAdmin(t *testing.T) {
	s := newTestServer()

	for _, target := range []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/identities/Asha_001"},
		{http.MethodPost, "/api/wipe"},
	} {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(target.method, target.path, nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected 403 without admin role, got %d", target.method, target.path, rec.Code)
		}

		req := httptest.NewRequest(target.method, target.path, nil)
		req.Header.Set("X-Actor-Role", "admin")
		rec = httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s %s: expected 200 with admin role, got %d", target.method, target.path, rec.Code)
		}
	}
}

func TestRoutes_CORSPreflight(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodOptions, "/api/sync", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("expected localhost origin allowed")
	}
}
