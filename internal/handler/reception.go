package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/backoffice/internal/archive"
	"github.com/dukerupert/backoffice/internal/console"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/reception"
	"github.com/dukerupert/backoffice/internal/websocket"
)

type ReceptionHandler struct {
	svc      *reception.Service
	list     *listPage[*model.Page[model.Reception], reception.ListParams]
	archiver *archive.Archiver
	logger   *slog.Logger
}

func NewReceptionHandler(svc *reception.Service, archiver *archive.Archiver, notify console.Notifier, logger *slog.Logger) *ReceptionHandler {
	return &ReceptionHandler{
		svc:      svc,
		list:     newListPage("reception", notify, svc.List),
		archiver: archiver,
		logger:   logger,
	}
}

type receptionList struct {
	console.State[*model.Page[model.Reception]]
	Pager any `json:"pager"`
}

func withPager(state console.State[*model.Page[model.Reception]]) receptionList {
	var pager console.Pager
	if state.Data != nil {
		pager = console.PagerOf(*state.Data)
	}
	return receptionList{State: state, Pager: pager.View()}
}

func (h *ReceptionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intQuery(q, "page")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	size, err := intQuery(q, "size")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	params := reception.ListParams{Page: page, Size: size, Status: model.ReceptionStatus(q.Get("status"))}.Normalize()
	state, _ := h.list.load(r.Context(), params)
	writeJSON(w, http.StatusOK, withPager(state))
}

func (h *ReceptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type itemsResponse struct {
	Items    []model.ReceptionItem `json:"items"`
	Progress reception.Summary     `json:"progress"`
	Ready    bool                  `json:"ready"`
}

// Items always re-fetches from the backend.
func (h *ReceptionHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Items(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.ReceptionItem{}
	}
	progress := reception.Progress(items)
	writeJSON(w, http.StatusOK, itemsResponse{Items: items, Progress: progress, Ready: progress.Complete()})
}

func (h *ReceptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in reception.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rec, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "created", rec.ID.String(), "Reception "+rec.DeliveryNumber+" created")
	writeJSON(w, http.StatusCreated, mutation{Item: rec, List: withPager(list)})
}

func (h *ReceptionHandler) ValidateItem(w http.ResponseWriter, r *http.Request) {
	var v reception.ItemValidation
	if !decodeJSON(w, r, &v) {
		return
	}
	id := idParam(r, "id")
	item, err := h.svc.ValidateItem(r.Context(), id, idParam(r, "item"), v)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	h.list.notify.Toast(websocket.LevelSuccess, "Item validated")
	h.list.notify.Refresh("reception", "item_validated", id.String())
	writeJSON(w, http.StatusOK, item)
}

func (h *ReceptionHandler) BatchCheck(w http.ResponseWriter, r *http.Request) {
	check, err := h.svc.BatchCheck(r.Context(), r.PathValue("sku"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *ReceptionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Force bool `json:"force_validation"`
	}
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	rec, err := h.svc.Complete(r.Context(), idParam(r, "id"), req.Force)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}

	h.archiveCompletion(r.Context(), rec, req.Force)

	list := h.list.succeeded(r.Context(), "completed", rec.ID.String(), "Reception "+rec.DeliveryNumber+" completed")
	writeJSON(w, http.StatusOK, mutation{Item: rec, List: withPager(list)})
}

// archiveCompletion keeps a completion record when an archive is
// configured. Failures are reported but do not undo the completion.
func (h *ReceptionHandler) archiveCompletion(ctx context.Context, rec *model.Reception, forced bool) {
	if h.archiver == nil || !h.archiver.Configured() {
		return
	}
	now := time.Now()
	record, err := h.svc.Record(ctx, rec, forced, now)
	if err != nil {
		h.logger.Warn("archive reception: fetch items", "reception", rec.ID, "error", err)
	}
	if _, err := h.archiver.Put(ctx, archive.ReceptionKey(rec.ID, now), record); err != nil {
		h.logger.Error("archive reception", "reception", rec.ID, "error", err)
		h.list.notify.Toast(websocket.LevelError, "Reception completed but not archived")
	}
}

func (h *ReceptionHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer file.Close()

	id := idParam(r, "id")
	photo, err := h.svc.UploadPhoto(r.Context(), id, header.Filename, file)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	h.list.notify.Toast(websocket.LevelSuccess, "Photo uploaded")
	h.list.notify.Refresh("reception", "photo_uploaded", id.String())
	writeJSON(w, http.StatusCreated, photo)
}
