// Package mission — HTTP surface.
//
// Routes:
//
//	POST   /missions                       → create a draft mission
//	GET    /missions                       → list missions (filterable)
//	GET    /missions/{id}                  → cache-through read
//	PATCH  /missions/{id}                  → partial update
//	POST   /missions/{id}/publish          → publish to the channel
//	POST   /missions/{id}/cancel           → cancel
//	GET    /missions/{id}/matches          → matching freelances
//	GET    /freelances/{id}/missions       → matching missions for a profile
package mission

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/actabi/FreelanceAcademy/internal/model"
)

// Handler holds shared dependencies.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the mission routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/missions", h.handleMissions)
	mux.HandleFunc("/missions/", h.handleMissionAction)
	mux.HandleFunc("/freelances/", h.handleFreelanceAction)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleMissions handles GET/POST /missions
func (h *Handler) handleMissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listMissions(w, r)
	case http.MethodPost:
		h.createMission(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMissionAction handles /missions/{id} and /missions/{id}/{action}
func (h *Handler) handleMissionAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch len(parts) {
	case 2:
		id := parts[1]
		switch r.Method {
		case http.MethodGet:
			h.getMission(w, r, id)
		case http.MethodPatch:
			h.updateMission(w, r, id)
		default:
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case 3:
		id, action := parts[1], parts[2]
		switch {
		case action == "publish" && r.Method == http.MethodPost:
			h.publishMission(w, r, id)
		case action == "cancel" && r.Method == http.MethodPost:
			h.cancelMission(w, r, id)
		case action == "matches" && r.Method == http.MethodGet:
			h.matchingFreelances(w, r, id)
		default:
			jsonError(w, "unknown action", http.StatusNotFound)
		}
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

// handleFreelanceAction handles GET /freelances/{id}/missions
func (h *Handler) handleFreelanceAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "missions" || r.Method != http.MethodGet {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	missions, err := h.svc.FindMatchingMissions(r.Context(), parts[1])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, missions)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) createMission(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if in.Location != "" {
		if _, err := ParseLocation(string(in.Location)); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	m, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonStatus(w, m, http.StatusCreated)
}

func (h *Handler) listMissions(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	missions, err := h.svc.FindAll(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, missions)
}

func (h *Handler) getMission(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.svc.FindByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, m)
}

func (h *Handler) updateMission(w http.ResponseWriter, r *http.Request, id string) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if in.Status != nil {
		if _, err := ParseStatus(string(*in.Status)); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if in.Location != nil {
		if _, err := ParseLocation(string(*in.Location)); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	m, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, m)
}

func (h *Handler) publishMission(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.svc.Publish(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, m)
}

func (h *Handler) cancelMission(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, m)
}

func (h *Handler) matchingFreelances(w http.ResponseWriter, r *http.Request, id string) {
	freelances, err := h.svc.FindMatchingFreelances(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonOK(w, freelances)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// filterFromQuery builds a MissionFilter from ?status=&skills=a,b&minRate=&
// maxRate=&location= query parameters.
func filterFromQuery(r *http.Request) (model.MissionFilter, error) {
	var f model.MissionFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status, err := ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = status
	}
	if s := q.Get("location"); s != "" {
		loc, err := ParseLocation(s)
		if err != nil {
			return f, err
		}
		f.Location = loc
	}
	if s := q.Get("skills"); s != "" {
		for _, name := range strings.Split(s, ",") {
			if name = strings.TrimSpace(name); name != "" {
				f.Skills = append(f.Skills, name)
			}
		}
	}
	for _, key := range []string{"minRate", "maxRate"} {
		s := q.Get(key)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return f, errors.New(key + " must be an integer")
		}
		if key == "minRate" {
			f.MinRate = &v
		} else {
			f.MaxRate = &v
		}
	}
	return f, nil
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Not-found is
// an expected outcome and is not logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		validation *ValidationError
		transition *InvalidTransitionError
		external   *IntegrationError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, "mission not found", http.StatusNotFound)
	case errors.As(err, &validation):
		jsonError(w, validation.Error(), http.StatusBadRequest)
	case errors.As(err, &transition):
		jsonError(w, transition.Error(), http.StatusConflict)
	case errors.As(err, &external):
		log.Printf("[mission] external channel error: %v", err)
		jsonError(w, "channel publication failed", http.StatusBadGateway)
	default:
		log.Printf("[mission] internal error: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, v, http.StatusOK)
}

func jsonStatus(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
