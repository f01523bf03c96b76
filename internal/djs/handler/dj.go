package handler

import (
	"net/http"
	"strconv"

	"djagency/internal/djs/service"
	apperrors "djagency/pkg/errors"
	httputil "djagency/pkg/http"
	"djagency/pkg/logger"
	"djagency/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type DJHandler struct {
	service service.DJService
	log     *logger.Logger
}

func NewDJHandler(service service.DJService, log *logger.Logger) *DJHandler {
	return &DJHandler{
		service: service,
		log:     log,
	}
}

func (h *DJHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var dj model.DJ
	if err := httputil.DecodeJSON(r, &dj); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &dj); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, dj); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *DJHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dj, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, dj); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DJHandler) GetBySlug(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dj, err := h.service.GetBySlug(r.Context(), ps.ByName("slug"))
	if err != nil {
		h.writeError(w, "GetBySlug", err)
		return
	}

	if err := httputil.WriteSuccess(w, dj); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBySlug", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DJHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.DJFilter{Genre: query.Get("genre")}
	if active := query.Get("active"); active != "" {
		filter.ActiveOnly, err = strconv.ParseBool(active)
		if err != nil {
			h.writeError(w, "GetAll", apperrors.InvalidInput("invalid active parameter: "+active))
			return
		}
	}

	djs, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, djs, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *DJHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.DJUpdate
	if err := httputil.DecodeJSONStrict(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	dj, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, dj); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DJHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *DJHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *DJHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/djs", h.Create)
	router.GET("/api/v1/djs", h.GetAll)
	router.GET("/api/v1/djs/id/:id", h.GetByID)
	router.PATCH("/api/v1/djs/id/:id", h.Update)
	router.DELETE("/api/v1/djs/id/:id", h.Delete)
	router.GET("/api/v1/djs/slug/:slug", h.GetBySlug)
}
