package handler

import (
	"net/http"

	"djagency/internal/inquiries/service"
	httputil "djagency/pkg/http"
	"djagency/pkg/logger"
	"djagency/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type InquiryHandler struct {
	service service.InquiryService
	log     *logger.Logger
}

func NewInquiryHandler(service service.InquiryService, log *logger.Logger) *InquiryHandler {
	return &InquiryHandler{
		service: service,
		log:     log,
	}
}

func (h *InquiryHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var sub model.InquirySubmission
	if err := httputil.DecodeJSON(r, &sub); err != nil {
		h.writeError(w, "Submit", err)
		return
	}

	receipt, err := h.service.Submit(r.Context(), &sub)
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}

	if err := httputil.WriteCreated(w, receipt); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *InquiryHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	inquiry, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, inquiry); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InquiryHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.InquiryFilter{
		Status: query.Get("status"),
		Type:   query.Get("type"),
	}

	inquiries, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, inquiries, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *InquiryHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var change model.StatusChange
	if err := httputil.DecodeJSONStrict(r, &change); err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	inquiry, err := h.service.Transition(r.Context(), ps.ByName("id"), change.Status)
	if err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	if err := httputil.WriteSuccess(w, inquiry); err != nil {
		h.log.Error("failed to write success response", "handler", "Transition", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InquiryHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *InquiryHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/inquiries", h.GetAll)
	router.GET("/api/v1/inquiries/id/:id", h.GetByID)
	router.PATCH("/api/v1/inquiries/id/:id/status", h.Transition)
}

func (h *InquiryHandler) RegisterPublicRoutes(router *httprouter.Router) {
	router.POST("/inquiries", h.Submit)
}
