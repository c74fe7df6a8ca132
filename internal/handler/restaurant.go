package handler

import (
	"net/http"

	"github.com/dukerupert/backoffice/internal/console"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/restaurant"
	"github.com/dukerupert/backoffice/internal/websocket"
)

type RestaurantHandler struct {
	svc  *restaurant.Service
	list *listPage[[]model.Restaurant, restaurant.ListParams]
}

func NewRestaurantHandler(svc *restaurant.Service, notify console.Notifier) *RestaurantHandler {
	return &RestaurantHandler{
		svc:  svc,
		list: newListPage("restaurant", notify, svc.List),
	}
}

func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := restaurant.ListParams{
		Status: model.RestaurantStatus(q.Get("status")),
		Search: q.Get("search"),
	}
	state, _ := h.list.load(r.Context(), params)
	writeJSON(w, http.StatusOK, state)
}

func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	rest, err := h.svc.Get(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in restaurant.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rest, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "created", rest.ID.String(), "Restaurant "+rest.Name+" created")
	writeJSON(w, http.StatusCreated, mutation{Item: rest, List: list})
}

func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in restaurant.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	rest, err := h.svc.Update(r.Context(), idParam(r, "id"), in)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "updated", rest.ID.String(), "Restaurant "+rest.Name+" saved")
	writeJSON(w, http.StatusOK, mutation{Item: rest, List: list})
}

func (h *RestaurantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "deleted", id.String(), "Restaurant deleted")
	writeJSON(w, http.StatusOK, mutation{List: list})
}

func (h *RestaurantHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	rest, err := h.svc.Suspend(r.Context(), idParam(r, "id"), req.Reason)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "suspended", rest.ID.String(), "Restaurant suspended")
	writeJSON(w, http.StatusOK, mutation{Item: rest, List: list})
}

func (h *RestaurantHandler) Activate(w http.ResponseWriter, r *http.Request) {
	rest, err := h.svc.Activate(r.Context(), idParam(r, "id"))
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "activated", rest.ID.String(), "Restaurant activated")
	writeJSON(w, http.StatusOK, mutation{Item: rest, List: list})
}

type settingsResponse struct {
	Raw   map[string]any      `json:"raw"`
	Typed restaurant.Settings `json:"typed"`
}

func (h *RestaurantHandler) Settings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.svc.Settings(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSettings(w, raw)
}

func (h *RestaurantHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	raw, err := h.svc.UpdateSetting(r.Context(), idParam(r, "id"), req.Key, req.Value)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	h.list.notify.Toast(websocket.LevelSuccess, "Setting "+req.Key+" saved")
	h.writeSettings(w, raw)
}

func (h *RestaurantHandler) writeSettings(w http.ResponseWriter, raw map[string]any) {
	typed, err := restaurant.DecodeSettings(raw)
	if err != nil {
		writeJSON(w, http.StatusOK, settingsResponse{Raw: raw})
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Raw: raw, Typed: typed})
}

func (h *RestaurantHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
