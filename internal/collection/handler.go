package collection

import (
	"fmt"
	"net/http"
	"strings"

	"leadsync/internal/httpjson"
)

// Handler exposes profile management over HTTP.
//
// Routes:
//
//	GET  /profiles                 → list profiles
//	POST /profiles                 → create a profile
//	GET  /profiles/{id}            → one profile
//	POST /profiles/{id}/update     → replace editable fields
//	POST /profiles/{id}/delete     → delete, cascading to its leads
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the profile routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/profiles", h.handleProfiles)
	mux.HandleFunc("/profiles/", h.handleProfileAction)
}

// ─── Route dispatch ──────────────────────────────────────────────────────────

func (h *Handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		profiles, err := h.svc.List(r.Context())
		if err != nil {
			httpjson.Fail(w, err)
			return
		}
		httpjson.OK(w, profiles)
	case http.MethodPost:
		in, err := decodeInput(r)
		if err != nil {
			httpjson.Fail(w, err)
			return
		}
		p, err := h.svc.Create(r.Context(), in)
		if err != nil {
			httpjson.Fail(w, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, p)
	default:
		httpjson.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleProfileAction handles GET /profiles/{id} and POST /profiles/{id}/update|delete
func (h *Handler) handleProfileAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 2 {
		if !httpjson.Method(w, r, http.MethodGet) {
			return
		}
		p, err := h.svc.Get(r.Context(), parts[1])
		if err != nil {
			httpjson.Fail(w, err)
			return
		}
		httpjson.OK(w, p)
		return
	}
	if len(parts) != 3 {
		httpjson.Error(w, "invalid path", http.StatusNotFound)
		return
	}
	if !httpjson.Method(w, r, http.MethodPost) {
		return
	}

	id := parts[1]
	switch action := parts[2]; action {
	case "update":
		in, err := decodeInput(r)
		if err != nil {
			httpjson.Fail(w, err)
			return
		}
		p, err := h.svc.Update(r.Context(), id, in)
		if err != nil {
			httpjson.Fail(w, err)
			return
		}
		httpjson.OK(w, p)
	case "delete":
		removed, err := h.svc.Delete(r.Context(), id)
		if err != nil {
			httpjson.Fail(w, err)
			return
		}
		httpjson.OK(w, map[string]any{"deleted": id, "leadsRemoved": removed})
	default:
		httpjson.Error(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// formInput accepts keyword lists either as JSON arrays or as the
// comma-separated strings typed into a form.
type formInput struct {
	Name            string `json:"name"`
	Keywords        any    `json:"keywords"`
	ExcludeKeywords any    `json:"excludeKeywords"`
	Niche           string `json:"niche"`
	Location        string `json:"location"`
}

func decodeInput(r *http.Request) (Input, error) {
	var body formInput
	if err := httpjson.Decode(r, &body); err != nil {
		return Input{}, err
	}
	return Input{
		Name:            body.Name,
		Keywords:        toList(body.Keywords),
		ExcludeKeywords: toList(body.ExcludeKeywords),
		Niche:           body.Niche,
		Location:        body.Location,
	}, nil
}

func toList(v any) []string {
	switch t := v.(type) {
	case string:
		return ParseList(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
