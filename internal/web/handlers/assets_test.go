package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/faceguard/faceguard/internal/store/mock"
	"github.com/go-chi/chi/v5"
)

func uploadBody(t *testing.T, id, kind string, data []byte) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(assetUpload{
		ID:   id,
		Kind: kind,
		Data: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(body)
}

func TestAssetsHandler_UploadAndServe(t *testing.T) {
	kv := mock.NewKV()
	h := NewAssetsHandler(kv)

	req := httptest.NewRequest(http.MethodPost, "/api/assets", uploadBody(t, "Asha_001", "profile", []byte("jpeg-bytes")))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", "profile")
	rctx.URLParams.Add("id", "Asha_001")
	req = httptest.NewRequest(http.MethodGet, "/assets/profile/Asha_001", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec = httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "jpeg-bytes" {
		t.Errorf("asset bytes mangled: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image content type, got %q", ct)
	}
}

func TestAssetsHandler_UploadRejectsBadInput(t *testing.T) {
	h := NewAssetsHandler(mock.NewKV())

	cases := []struct {
		name string
		body *bytes.Reader
	}{
		{"missing id", uploadBody(t, "", "profile", []byte("x"))},
		{"unknown kind", uploadBody(t, "Asha_001", "selfie", []byte("x"))},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/assets", tc.body)
		rec := httptest.NewRecorder()
		h.Upload(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}

	body, _ := json.Marshal(assetUpload{ID: "Asha_001", Kind: "profile", Data: "not-base64!"})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad base64: expected 400, got %d", rec.Code)
	}
}

func TestAssetsHandler_ServeMissing(t *testing.T) {
	h := NewAssetsHandler(mock.NewKV())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("kind", "profile")
	rctx.URLParams.Add("id", "Nobody_001")
	req := httptest.NewRequest(http.MethodGet, "/assets/profile/Nobody_001", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
