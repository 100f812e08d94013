package discovery

import (
	"errors"
	"net/http"

	"leadsync/internal/httpjson"
	"leadsync/internal/model"
)

// Handler exposes scans, group discovery, strategy analysis and platform
// connections.
//
// Routes:
//
//	POST /profiles/{id}/scan      → scan one profile
//	POST /leads/{id}/strategy     → outreach strategy for a lead
//	GET  /groups                  → stored groups
//	POST /groups/discover         → search for new groups
//	GET  /connections             → connection state per platform
//	POST /connections/nextdoor    → link a Nextdoor neighborhood
type Handler struct {
	worker *Worker
}

// NewHandler returns a configured Handler.
func NewHandler(worker *Worker) *Handler {
	return &Handler{worker: worker}
}

// RegisterRoutes mounts the discovery routes on mux. The two wildcard routes
// are more specific than the /profiles/ and /leads/ prefixes owned by other
// handlers, so the mux prefers them.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /profiles/{id}/scan", h.scan)
	mux.HandleFunc("POST /leads/{id}/strategy", h.strategy)
	mux.HandleFunc("/groups", h.listGroups)
	mux.HandleFunc("/groups/discover", h.discoverGroups)
	mux.HandleFunc("/connections", h.listConnections)
	mux.HandleFunc("/connections/nextdoor", h.connectNextdoor)
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string   `json:"platform"`
		GroupIDs []string `json:"groupIds"`
	}
	if r.ContentLength != 0 {
		if err := httpjson.Decode(r, &body); err != nil {
			httpjson.Fail(w, err)
			return
		}
	}

	res, err := h.worker.ScanProfile(r.Context(), r.PathValue("id"), body.Platform, body.GroupIDs)
	if err != nil {
		var ue *model.UpstreamError
		if errors.As(err, &ue) {
			httpjson.Write(w, http.StatusBadGateway, scanFailure{ScanResult: res, Error: ue.Error()})
			return
		}
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, res)
}

// scanFailure is the body of a scan whose search failed: the empty result
// plus a message the client can show.
type scanFailure struct {
	ScanResult
	Error string `json:"error"`
}

func (h *Handler) strategy(w http.ResponseWriter, r *http.Request) {
	text, err := h.worker.AnalyzeLead(r.Context(), r.PathValue("id"))
	if err != nil {
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, map[string]string{"strategy": text})
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	if !httpjson.Method(w, r, http.MethodGet) {
		return
	}
	groups, err := h.worker.ListGroups(r.Context())
	if err != nil {
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, groups)
}

func (h *Handler) discoverGroups(w http.ResponseWriter, r *http.Request) {
	if !httpjson.Method(w, r, http.MethodPost) {
		return
	}
	var body struct {
		Niche    string `json:"niche"`
		Location string `json:"location"`
		Platform string `json:"platform"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.Fail(w, err)
		return
	}

	groups, err := h.worker.DiscoverGroups(r.Context(), body.Niche, body.Location, body.Platform)
	if err != nil {
		var ue *model.UpstreamError
		if errors.As(err, &ue) {
			httpjson.Write(w, http.StatusBadGateway, map[string]any{"groups": groups, "error": ue.Error()})
			return
		}
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, groups)
}

func (h *Handler) listConnections(w http.ResponseWriter, r *http.Request) {
	if !httpjson.Method(w, r, http.MethodGet) {
		return
	}
	conns, err := h.worker.ListConnections(r.Context())
	if err != nil {
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, conns)
}

func (h *Handler) connectNextdoor(w http.ResponseWriter, r *http.Request) {
	if !httpjson.Method(w, r, http.MethodPost) {
		return
	}
	var body struct {
		AccountName     string `json:"accountName"`
		NeighborhoodURL string `json:"neighborhoodUrl"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.Fail(w, err)
		return
	}

	conn, err := h.worker.ConnectNextdoor(r.Context(), body.AccountName, body.NeighborhoodURL)
	if err != nil {
		httpjson.Fail(w, err)
		return
	}
	httpjson.OK(w, conn)
}
