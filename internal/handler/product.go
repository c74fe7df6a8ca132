package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/backoffice/internal/console"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/product"
)

type ProductHandler struct {
	svc    *product.Service
	list   *listPage[[]model.Product, product.ListParams]
	logger *slog.Logger
}

func NewProductHandler(svc *product.Service, notify console.Notifier, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		svc:    svc,
		list:   newListPage("product", notify, svc.List),
		logger: logger,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	available, err := boolQuery(q, "available")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	state, _ := h.list.load(r.Context(), product.ListParams{
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		Available: available,
	})
	writeJSON(w, http.StatusOK, state)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "created", p.ID.String(), "Product "+p.Name+" created")
	writeJSON(w, http.StatusCreated, mutation{Item: p, List: list})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Update(r.Context(), idParam(r, "id"), in)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "updated", p.ID.String(), "Product "+p.Name+" saved")
	writeJSON(w, http.StatusOK, mutation{Item: p, List: list})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "deleted", id.String(), "Product deleted")
	writeJSON(w, http.StatusOK, mutation{List: list})
}

func (h *ProductHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Available bool `json:"is_available"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.SetAvailability(r.Context(), idParam(r, "id"), req.Available)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	msg := p.Name + " is now unavailable"
	if p.IsAvailable {
		msg = p.Name + " is now available"
	}
	list := h.list.succeeded(r.Context(), "updated", p.ID.String(), msg)
	writeJSON(w, http.StatusOK, mutation{Item: p, List: list})
}

func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer file.Close()

	p, err := h.svc.UploadImage(r.Context(), idParam(r, "id"), header.Filename, file)
	if err != nil {
		h.list.failed(err)
		writeError(w, err)
		return
	}
	list := h.list.succeeded(r.Context(), "updated", p.ID.String(), "Image uploaded")
	writeJSON(w, http.StatusOK, mutation{Item: p, List: list})
}

// Export downloads the currently filtered catalog as an Excel workbook.
func (h *ProductHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.list.mu.Lock()
	params := h.list.params
	h.list.mu.Unlock()

	products, err := h.svc.List(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := product.ExportXLSX(&buf, products); err != nil {
		h.logger.Error("export products", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to build workbook"})
		return
	}

	filename := "products-" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
