package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/faceguard/faceguard/internal/store"
	"github.com/go-chi/chi/v5"
)

// AssetsHandler stores and serves binary assets (profile portraits and
// capture frames). Devices queue their assets locally and upload them
// base64 encoded in JSON envelopes during sync sweeps.
type AssetsHandler struct {
	assets store.KV
}

func NewAssetsHandler(assets store.KV) *AssetsHandler {
	return &AssetsHandler{assets: assets}
}

type assetUpload struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Data string `json:"data"`
}

func assetKey(kind, id string) string {
	return kind + "/" + id
}

// Upload accepts one base64 encoded asset.
func (h *AssetsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var payload assetUpload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if payload.ID == "" {
		respondError(w, http.StatusBadRequest, "asset id is required")
		return
	}
	kind := store.AssetKind(payload.Kind)
	if kind != store.AssetProfile && kind != store.AssetCapture {
		respondError(w, http.StatusBadRequest, "unknown asset kind")
		return
	}

	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "asset data is not valid base64")
		return
	}
	if err := h.assets.Set(assetKey(payload.Kind, payload.ID), data); err != nil {
		log.Printf("asset upload %s: %v", sanitizeForLog(payload.ID), err)
		respondError(w, http.StatusInternalServerError, "could not store asset")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Serve streams a stored asset back as an image.
func (h *AssetsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	id := chi.URLParam(r, "id")

	data, ok, err := h.assets.Get(assetKey(kind, id))
	if err != nil {
		log.Printf("asset read %s/%s: %v", sanitizeForLog(kind), sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "could not read asset")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "asset not found")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
