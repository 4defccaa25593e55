// Package alert — HTTP surface.
//
// All routes expect an x-user-id header identifying the owner.
//
// Routes:
//
//	POST   /alerts          → create an alert
//	GET    /alerts          → list the caller's alerts
//	PATCH  /alerts/{id}     → update criteria
//	DELETE /alerts/{id}     → delete
package alert

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/actabi/FreelanceAcademy/internal/mission"
)

// Handler holds shared dependencies.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the alert routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/alerts", h.handleAlerts)
	mux.HandleFunc("/alerts/", h.handleAlertAction)
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		alerts, err := h.svc.ListByUser(r.Context(), userID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		jsonOK(w, alerts)

	case http.MethodPost:
		var in CreateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		in.UserID = userID
		a, err := h.svc.Create(r.Context(), in)
		if err != nil {
			h.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(a)

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleAlertAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	id := parts[1]

	switch r.Method {
	case http.MethodPatch:
		var in CreateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		a, err := h.svc.Update(r.Context(), id, in)
		if err != nil {
			h.writeError(w, err)
			return
		}
		jsonOK(w, a)

	case http.MethodDelete:
		if err := h.svc.Delete(r.Context(), id); err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, mission.ErrNotFound) {
		jsonError(w, "alert not found", http.StatusNotFound)
		return
	}
	log.Printf("[alert] internal error: %v", err)
	jsonError(w, "internal error", http.StatusInternalServerError)
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
