package app

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
)

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

type healthHandler struct {
	ready ReadyFunc
	log   *logger.Logger
}

func newHealthHandler(ready ReadyFunc, log *logger.Logger) *healthHandler {
	return &healthHandler{
		ready: ready,
		log:   log,
	}
}

func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *healthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	if err := h.ready(ctx); err != nil {
		h.log.Error("Storage health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unavailable",
			Storage: "error",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:  "ready",
		Storage: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *healthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
