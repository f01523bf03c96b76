package health

import (
	"context"
	"net/http"
	"time"

	httputil "djagency/pkg/http"
	"djagency/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const readyTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Response struct {
	Status  string `json:"status"`
	Store   string `json:"store,omitempty"`
	Driver  string `json:"driver,omitempty"`
	Version string `json:"version,omitempty"`
}

type Handler struct {
	pinger  Pinger
	driver  string
	version string
	log     *logger.Logger
}

func NewHandler(pinger Pinger, driver, version string, log *logger.Logger) *Handler {
	return &Handler{
		pinger:  pinger,
		driver:  driver,
		version: version,
		log:     log,
	}
}

// Health reports liveness only and never touches the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, Response{
		Status:  "ok",
		Version: h.version,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.log.Error("Store health check failed",
			"driver", h.driver,
			"error", err,
			"path", r.URL.Path,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{
			Status: "unavailable",
			Store:  "error",
			Driver: h.driver,
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, Response{
		Status: "ready",
		Store:  "ok",
		Driver: h.driver,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
