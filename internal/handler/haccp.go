package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/backoffice/internal/archive"
	"github.com/dukerupert/backoffice/internal/console"
	"github.com/dukerupert/backoffice/internal/haccp"
	"github.com/dukerupert/backoffice/internal/websocket"
)

type HACCPHandler struct {
	svc      *haccp.Service
	view     *console.View[*haccp.Dashboard]
	archiver *archive.Archiver
	notify   console.Notifier
	logger   *slog.Logger
}

func NewHACCPHandler(svc *haccp.Service, archiver *archive.Archiver, notify console.Notifier, logger *slog.Logger) *HACCPHandler {
	if notify == nil {
		notify = console.Discard
	}
	return &HACCPHandler{
		svc:      svc,
		view:     console.NewView[*haccp.Dashboard](),
		archiver: archiver,
		notify:   notify,
		logger:   logger,
	}
}

type dashboardResponse struct {
	Tab       haccp.Tab   `json:"tab"`
	Tabs      []haccp.Tab `json:"tabs"`
	Content   any         `json:"content"`
	Mock      bool        `json:"mock"`
	Loaded    bool        `json:"loaded"`
	Error     string      `json:"error,omitempty"`
	FetchedAt *time.Time  `json:"fetched_at,omitempty"`
}

// Dashboard reloads the HACCP data and renders the requested tab.
func (h *HACCPHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	tab := haccp.ParseTab(r.URL.Query().Get("tab"))
	state, _ := h.view.Load(r.Context(), h.svc.Dashboard)

	resp := dashboardResponse{Tab: tab, Tabs: haccp.Tabs, Loaded: state.Loaded, Error: state.Error}
	if state.Data != nil {
		resp.Content = state.Data.Tab(tab)
		resp.Mock = state.Data.Mock
		fetched := state.FetchedAt
		resp.FetchedAt = &fetched
	}
	writeJSON(w, http.StatusOK, resp)
}

// Archive stores the last loaded dashboard in the archive bucket.
func (h *HACCPHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil || !h.archiver.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: archive.ErrNotConfigured.Error()})
		return
	}
	state := h.view.Snapshot()
	if state.Data == nil {
		state, _ = h.view.Load(r.Context(), h.svc.Dashboard)
		if state.Data == nil {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: state.Error})
			return
		}
	}

	obj, err := h.archiver.Put(r.Context(), archive.HACCPKey(state.Data.FetchedAt), state.Data)
	if err != nil {
		h.logger.Error("archive haccp dashboard", "error", err)
		h.notify.Toast(websocket.LevelError, "Archive failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "archive failed"})
		return
	}
	h.notify.Toast(websocket.LevelSuccess, "HACCP dashboard archived")
	writeJSON(w, http.StatusCreated, obj)
}

// Archives lists stored dashboards, newest first.
func (h *HACCPHandler) Archives(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil || !h.archiver.Configured() {
		writeJSON(w, http.StatusOK, []archive.Object{})
		return
	}
	objects, err := h.archiver.List(r.Context(), "haccp/")
	if err != nil {
		writeError(w, err)
		return
	}
	if objects == nil {
		objects = []archive.Object{}
	}
	writeJSON(w, http.StatusOK, objects)
}
