package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"masterbook/internal/analytics/service"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/middleware"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
	auth    func(httprouter.Handle) httprouter.Handle
	log     *logger.Logger
}

func NewAnalyticsHandler(
	service service.AnalyticsService,
	auth func(httprouter.Handle) httprouter.Handle,
	log *logger.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	report, err := h.service.Summary(r.Context(), actor)
	if err != nil {
		h.writeError(w, "Summary", err)
		return
	}
	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AnalyticsHandler) Monthly(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	stats, err := h.service.Monthly(r.Context(), actor)
	if err != nil {
		h.writeError(w, "Monthly", err)
		return
	}
	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Monthly", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AnalyticsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/analytics/summary", h.auth(h.Summary))
	router.GET("/api/v1/analytics/monthly", h.auth(h.Monthly))
}

func (h *AnalyticsHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
