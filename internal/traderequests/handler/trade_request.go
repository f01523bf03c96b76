package handler

import (
	"net/http"

	"djagency/internal/traderequests/service"
	httputil "djagency/pkg/http"
	"djagency/pkg/logger"
	"djagency/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TradeRequestHandler struct {
	service service.TradeRequestService
	log     *logger.Logger
}

func NewTradeRequestHandler(service service.TradeRequestService, log *logger.Logger) *TradeRequestHandler {
	return &TradeRequestHandler{
		service: service,
		log:     log,
	}
}

func (h *TradeRequestHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var sub model.TradeRequestSubmission
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

func (h *TradeRequestHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tr, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, tr); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TradeRequestHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.TradeRequestFilter{
		Status: query.Get("status"),
		DJID:   query.Get("dj_id"),
	}

	trades, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, trades, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *TradeRequestHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var change model.StatusChange
	if err := httputil.DecodeJSONStrict(r, &change); err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	tr, err := h.service.Transition(r.Context(), ps.ByName("id"), change.Status)
	if err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	if err := httputil.WriteSuccess(w, tr); err != nil {
		h.log.Error("failed to write success response", "handler", "Transition", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TradeRequestHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TradeRequestHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *TradeRequestHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/trade-requests", h.GetAll)
	router.GET("/api/v1/trade-requests/id/:id", h.GetByID)
	router.DELETE("/api/v1/trade-requests/id/:id", h.Delete)
	router.PATCH("/api/v1/trade-requests/id/:id/status", h.Transition)
}

func (h *TradeRequestHandler) RegisterPublicRoutes(router *httprouter.Router) {
	router.POST("/trade-requests", h.Submit)
}
