package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithActor_ReadsHeaders(t *testing.T) {
	var got Actor
	h := WithActor()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Role", "admin")
	req.Header.Set("X-Actor-Entity", "Malkajgiri")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.Role != RoleAdmin || got.Entity != "Malkajgiri" {
		t.Errorf("unexpected actor %+v", got)
	}
}

func TestWithActor_DefaultsToOperator(t *testing.T) {
	var got Actor
	h := WithActor()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ActorFrom(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got.Role != RoleOperator {
		t.Errorf("expected operator default, got %+v", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	called := false
	h := WithActor()(RequireAdmin(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/wipe", nil))
	if rec.Code != http.StatusForbidden || called {
		t.Errorf("operator must be rejected, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/wipe", nil)
	req.Header.Set("X-Actor-Role", "admin")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !called {
		t.Error("admin must pass through")
	}
}

func TestActorFrom_MissingMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if actor := ActorFrom(req.Context()); actor.Role != RoleOperator {
		t.Errorf("expected operator fallback, got %+v", actor)
	}
}
