package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/NikiShestakov/tg/internal/store"
)

// ProfilesHandler serves the admin REST API: profile CRUD plus analytics.
type ProfilesHandler struct {
	profiles store.ProfileStore
	token    string
}

// NewProfilesHandler creates a handler over the given profile store.
// An empty token disables auth (dev mode).
func NewProfilesHandler(profiles store.ProfileStore, token string) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, token: token}
}

// RegisterRoutes registers all admin routes on the given mux.
func (h *ProfilesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/profiles", h.authMiddleware(h.handleList))
	mux.HandleFunc("POST /api/profiles", h.authMiddleware(h.handleCreate))
	mux.HandleFunc("GET /api/profiles/{id}", h.authMiddleware(h.handleGet))
	mux.HandleFunc("PUT /api/profiles/{id}", h.authMiddleware(h.handleUpdate))
	mux.HandleFunc("DELETE /api/profiles/{id}", h.authMiddleware(h.handleDelete))
	mux.HandleFunc("GET /api/analytics", h.authMiddleware(h.handleAnalytics))
}

func (h *ProfilesHandler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && extractBearerToken(r) != h.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (h *ProfilesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		slog.Error("list profiles failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if profiles == nil {
		profiles = []*store.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfilesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req store.NewProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	profile, err := h.profiles.Create(r.Context(), req)
	if err != nil {
		slog.Error("create profile failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (h *ProfilesHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfilesHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req store.UpdateProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	profile, err := h.profiles.Update(r.Context(), id, req)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	if err != nil {
		slog.Error("update profile failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfilesHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.profiles.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	if err != nil {
		slog.Error("delete profile failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfilesHandler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.profiles.Analytics(r.Context())
	if err != nil {
		slog.Error("analytics query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid profile id"})
		return uuid.Nil, false
	}
	return id, true
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
