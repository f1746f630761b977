package handlers

import (
	"log"
	"net/http"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/store"
	"github.com/faceguard/faceguard/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

// AdminHandler exposes identity management and reporting on top of the
// server store.
type AdminHandler struct {
	store store.ServerStore
}

func NewAdminHandler(st store.ServerStore) *AdminHandler {
	return &AdminHandler{store: st}
}

// ListIdentities returns the identity roster, scoped to the actor's
// entity unless the actor is an admin.
func (h *AdminHandler) ListIdentities(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Snapshot(r.Context(), dayParam(r))
	if err != nil {
		log.Printf("list identities: %v", err)
		respondError(w, http.StatusInternalServerError, "could not load identities")
		return
	}

	actor := middleware.ActorFrom(r.Context())
	ids := snap.Identities
	if actor.Role != middleware.RoleAdmin && actor.Entity != "" {
		scoped := make([]identity.Identity, 0, len(ids))
		for _, rec := range ids {
			if rec.Entity == actor.Entity {
				scoped = append(scoped, rec)
			}
		}
		ids = scoped
	}
	respondJSON(w, http.StatusOK, ids)
}

// DeleteIdentity removes one identity from the store.
func (h *AdminHandler) DeleteIdentity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteIdentity(r.Context(), id); err != nil {
		log.Printf("delete identity %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "could not delete identity")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Wipe clears the whole store.
func (h *AdminHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Wipe(r.Context()); err != nil {
		log.Printf("wipe: %v", err)
		respondError(w, http.StatusInternalServerError, "could not wipe store")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "wiped"})
}

// Report derives the daily attendance report for a day, scoped to the
// actor's entity for operators.
func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Snapshot(r.Context(), dayParam(r))
	if err != nil {
		log.Printf("report: %v", err)
		respondError(w, http.StatusInternalServerError, "could not load attendance")
		return
	}

	actor := middleware.ActorFrom(r.Context())
	entity := actor.Entity
	if actor.Role == middleware.RoleAdmin {
		entity = ""
	}
	respondJSON(w, http.StatusOK, attendance.Book(snap.Logs).Report(entity))
}
