package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"masterbook/internal/orders/service"
	apperrors "masterbook/pkg/errors"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/middleware"
	"masterbook/pkg/model"
)

type createOrderRequest struct {
	ServiceID string `json:"service_id"`
	DesiredAt string `json:"desired_at"`
	Comment   string `json:"comment"`
}

type setStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type OrderHandler struct {
	service service.OrderService
	auth    func(httprouter.Handle) httprouter.Handle
	log     *logger.Logger
}

func NewOrderHandler(
	service service.OrderService,
	auth func(httprouter.Handle) httprouter.Handle,
	log *logger.Logger,
) *OrderHandler {
	return &OrderHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	desiredAt, err := time.Parse(time.RFC3339, req.DesiredAt)
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("desired_at must be an RFC 3339 timestamp")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	order, err := h.service.Create(r.Context(), actor, service.CreateOrderInput{
		ServiceID: req.ServiceID,
		DesiredAt: desiredAt,
		Comment:   req.Comment,
	})
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, order); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	orders, err := h.service.ListForActor(r.Context(), actor)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, orders); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	order, err := h.service.GetByID(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, order); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetStatus", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	order, err := h.service.SetStatus(r.Context(), actor, ps.ByName("id"), model.OrderStatus(req.Status), req.Reason)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, order); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/orders", h.auth(h.Create))
	router.GET("/api/v1/orders", h.auth(h.List))
	router.GET("/api/v1/orders/:id", h.auth(h.GetByID))
	router.PATCH("/api/v1/orders/:id/status", h.auth(h.SetStatus))
	// Kept for clients that still send PUT.
	router.PUT("/api/v1/orders/:id/status", h.auth(h.SetStatus))
}
