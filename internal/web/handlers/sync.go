package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/faceguard/faceguard/internal/snapshot"
	"github.com/faceguard/faceguard/internal/store"
)

// SyncHandler serves the snapshot exchange both agent loops and the
// frontend poll against.
type SyncHandler struct {
	store store.ServerStore
}

func NewSyncHandler(st store.ServerStore) *SyncHandler {
	return &SyncHandler{store: st}
}

// Get returns the server snapshot for a day, identities plus that day's
// attendance records.
func (h *SyncHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Snapshot(r.Context(), dayParam(r))
	if err != nil {
		log.Printf("sync get: %v", err)
		respondError(w, http.StatusInternalServerError, "could not load snapshot")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// syncAck is the push response: the merged snapshot plus the server
// clock, so clients can observe their own skew.
type syncAck struct {
	snapshot.Snapshot
	ServerTime int64 `json:"serverTime"`
}

// Post merges a pushed client snapshot into the store and returns the
// merged result, so one round trip leaves both sides identical.
func (h *SyncHandler) Post(w http.ResponseWriter, r *http.Request) {
	var pushed snapshot.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&pushed); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	day := dayParam(r)
	if err := h.store.Merge(r.Context(), day, pushed); err != nil {
		log.Printf("sync merge from %s: %v", sanitizeForLog(r.Header.Get("X-Client-ID")), err)
		respondError(w, http.StatusInternalServerError, "could not merge snapshot")
		return
	}

	merged, err := h.store.Snapshot(r.Context(), day)
	if err != nil {
		log.Printf("sync reload: %v", err)
		respondError(w, http.StatusInternalServerError, "could not load merged snapshot")
		return
	}
	respondJSON(w, http.StatusOK, syncAck{Snapshot: merged, ServerTime: time.Now().UnixMilli()})
}
