// HTTP handlers for the pipeline service.
//
// All routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	GET  /applications?jobId=&status=      → list applications for a job
//	POST /applications                     → submit application {jobId}
//	GET  /applications/{id}                → fetch one application
//	GET  /applications/{id}/actions        → legal next statuses for the UI
//	POST /applications/{id}/status         → change status {newStatus}
//	POST /applications/{id}/withdraw       → candidate withdraws
//	POST /applications/{id}/note           → add/update recruiter note
//	POST /applications/{id}/rate           → set recruiter rating (1-5)
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler adapts Service to HTTP. It owns no business logic.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all pipeline-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/applications", h.handleApplications)
	mux.HandleFunc("/applications/", h.handleApplicationAction)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleApplications handles GET and POST /applications
func (h *Handler) handleApplications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listApplications(w, r)
	case http.MethodPost:
		h.submitApplication(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleApplicationAction handles /applications/{id} and /applications/{id}/{action}
func (h *Handler) handleApplicationAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getApplication(w, r, parts[1])
	case len(parts) == 3 && r.Method == http.MethodGet && parts[2] == "actions":
		h.nextActions(w, r, parts[1])
	case len(parts) == 3 && r.Method == http.MethodPost:
		appID, action := parts[1], parts[2]
		switch action {
		case "status":
			h.changeStatus(w, r, appID)
		case "withdraw":
			h.withdraw(w, r, appID)
		case "note":
			h.addNote(w, r, appID)
		case "rate":
			h.rateCandidate(w, r, appID)
		default:
			jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
		}
	default:
		jsonError(w, "not found", http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		jsonError(w, "jobId query parameter is required", http.StatusBadRequest)
		return
	}

	apps, err := h.svc.ListApplications(r.Context(), jobID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, apps)
}

func (h *Handler) submitApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		JobID string `json:"jobId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.JobID == "" {
		jsonError(w, "body must contain jobId", http.StatusBadRequest)
		return
	}

	app, err := h.svc.SubmitApplication(r.Context(), userID, body.JobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonCreated(w, app)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request, appID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	app, err := h.svc.GetApplication(r.Context(), userID, appID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) nextActions(w http.ResponseWriter, r *http.Request, appID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	actions, err := h.svc.NextActions(r.Context(), userID, appID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, actions)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, appID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewStatus == "" {
		jsonError(w, "body must contain newStatus", http.StatusBadRequest)
		return
	}

	app, err := h.svc.ChangeStatus(r.Context(), userID, appID, body.NewStatus)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request, appID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	app, err := h.svc.WithdrawApplication(r.Context(), userID, appID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request, appID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	app, err := h.svc.AddNote(r.Context(), userID, appID, body.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) rateCandidate(w http.ResponseWriter, r *http.Request, appID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	app, err := h.svc.RateCandidate(r.Context(), userID, appID, body.Rating)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, app)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// requireUser extracts the x-user-id header forwarded by the Gateway,
// replying 401 when it is missing.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrJobNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		var ve *ValidationError
		if errors.As(err, &ve) {
			jsonError(w, ve.Msg, http.StatusBadRequest)
			return
		}
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
