package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"masterbook/internal/availability/service"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/middleware"
	"masterbook/pkg/model"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	auth    func(httprouter.Handle) httprouter.Handle
	log     *logger.Logger
}

func NewAvailabilityHandler(
	service service.AvailabilityService,
	auth func(httprouter.Handle) httprouter.Handle,
	log *logger.Logger,
) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

// Get is public: clients need a master's schedule before booking.
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	masterID := ps.ByName("masterId")

	av, err := h.service.Get(r.Context(), masterID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, av); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) Put(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	masterID := ps.ByName("masterId")

	actor, _ := middleware.UserFrom(r.Context())

	var av model.Availability
	if err := json.NewDecoder(r.Body).Decode(&av); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Put", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	av.MasterID = masterID

	if err := h.service.Put(r.Context(), actor, &av); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Put", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, av); err != nil {
		h.log.Error("failed to write success response", "handler", "Put", "operation", "WriteSuccess", "error", err)
	}
}

// Slots is public: the booking UI shows occupancy before login.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	masterID := ps.ByName("masterId")
	date := r.URL.Query().Get("date")

	view, err := h.service.Slots(r.Context(), masterID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Slots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Slots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability/:masterId", h.Get)
	router.GET("/api/v1/availability/:masterId/slots", h.Slots)
	router.PUT("/api/v1/availability/:masterId", h.auth(h.Put))
}
