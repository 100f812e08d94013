package outreach

import (
	"fmt"
	"net/http"
	"strings"

	"leadsync/internal/export"
	"leadsync/internal/httpjson"
)

// Handler exposes the lead board over HTTP.
//
// Routes:
//
//	GET  /leads                  → list leads (?profileId=&platform=&status=)
//	GET  /leads/export.csv       → same filter, as CSV
//	POST /leads/{id}/status      → move a lead to a new status
//	GET  /overview               → counts per platform and status (?profileId=)
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the outreach routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/leads", h.handleLeads)
	mux.HandleFunc("/leads/export.csv", h.exportCSV)
	mux.HandleFunc("/leads/", h.handleLeadAction)
	mux.HandleFunc("/overview", h.overview)
}

// ─── Route dispatch ──────────────────────────────────────────────────────────

func (h *Handler) handleLeads(w http.ResponseWriter, r *http.Request) {
	if !httpjson.Method(w, r, http.MethodGet) {
		return
	}
	leads, err := h.svc.ListLeads(r.Context(), filterFrom(r))
	if err != nil {
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, leads)
}

// handleLeadAction handles POST /leads/{id}/status
func (h *Handler) handleLeadAction(w http.ResponseWriter, r *http.Request) {
	if !httpjson.Method(w, r, http.MethodPost) {
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		httpjson.Error(w, "invalid path", http.StatusNotFound)
		return
	}

	leadID := parts[1]
	switch action := parts[2]; action {
	case "status":
		h.setStatus(w, r, leadID)
	default:
		httpjson.Error(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// ─── Individual handlers ─────────────────────────────────────────────────────

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, leadID string) {
	var body struct {
		Status string `json:"status"`
	}
	if err := httpjson.Decode(r, &body); err != nil || body.Status == "" {
		httpjson.Error(w, "body must contain status", http.StatusBadRequest)
		return
	}

	l, err := h.svc.SetStatus(r.Context(), leadID, body.Status)
	if err != nil {
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, l)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	if !httpjson.Method(w, r, http.MethodGet) {
		return
	}
	leads, err := h.svc.ListLeads(r.Context(), filterFrom(r))
	if err != nil {
		httpjson.Fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	w.WriteHeader(http.StatusOK)
	export.WriteCSV(w, leads)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	if !httpjson.Method(w, r, http.MethodGet) {
		return
	}
	ov, err := h.svc.Overview(r.Context(), r.URL.Query().Get("profileId"))
	if err != nil {
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, ov)
}

func filterFrom(r *http.Request) Filter {
	q := r.URL.Query()
	return Filter{
		ProfileID: q.Get("profileId"),
		Platform:  q.Get("platform"),
		Status:    q.Get("status"),
	}
}
