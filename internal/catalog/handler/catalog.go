package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"masterbook/internal/catalog/repository"
	"masterbook/internal/catalog/service"
	apperrors "masterbook/pkg/errors"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/middleware"
)

type categoryRequest struct {
	Name string `json:"name"`
}

type CatalogHandler struct {
	service service.CatalogService
	auth    func(httprouter.Handle) httprouter.Handle
	log     *logger.Logger
}

func NewCatalogHandler(
	service service.CatalogService,
	auth func(httprouter.Handle) httprouter.Handle,
	log *logger.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, "ListCategories", err)
		return
	}
	h.writeSuccess(w, "ListCategories", categories)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	category, err := h.service.GetCategory(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetCategory", err)
		return
	}
	h.writeSuccess(w, "GetCategory", category)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "CreateCategory")
		return
	}

	category, err := h.service.CreateCategory(r.Context(), actor, req.Name)
	if err != nil {
		h.writeError(w, "CreateCategory", err)
		return
	}

	if err := httputil.WriteCreated(w, category); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateCategory", "operation", "WriteCreated", "error", err)
	}
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "UpdateCategory")
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), actor, ps.ByName("id"), req.Name)
	if err != nil {
		h.writeError(w, "UpdateCategory", err)
		return
	}
	h.writeSuccess(w, "UpdateCategory", category)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	if err := h.service.DeleteCategory(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteCategory", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	filter := repository.ServiceFilter{
		CategoryID: query.Get("category_id"),
		MasterID:   query.Get("master_id"),
		Search:     query.Get("search"),
	}

	for _, bound := range []struct {
		param string
		dest  **float64
	}{
		{"min_price", &filter.MinPrice},
		{"max_price", &filter.MaxPrice},
	} {
		raw := query.Get(bound.param)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, "ListServices", apperrors.InvalidInput(fmt.Sprintf("invalid %s parameter: %s", bound.param, raw)))
			return
		}
		*bound.dest = &value
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListServices", err)
		return
	}
	filter.Limit = limit
	filter.Offset = offset

	services, total, err := h.service.ListServices(r.Context(), filter)
	if err != nil {
		h.writeError(w, "ListServices", err)
		return
	}
	if err := httputil.WritePaginated(w, services, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListServices", "operation", "WritePaginated", "error", err)
	}
}

func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	details, err := h.service.GetServiceDetails(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetService", err)
		return
	}
	h.writeSuccess(w, "GetService", details)
}

func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	var req service.ServiceInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "CreateService")
		return
	}

	created, err := h.service.CreateService(r.Context(), actor, req)
	if err != nil {
		h.writeError(w, "CreateService", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateService", "operation", "WriteCreated", "error", err)
	}
}

func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	var req service.ServiceInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "UpdateService")
		return
	}

	updated, err := h.service.UpdateService(r.Context(), actor, ps.ByName("id"), req)
	if err != nil {
		h.writeError(w, "UpdateService", err)
		return
	}
	h.writeSuccess(w, "UpdateService", updated)
}

func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.UserFrom(r.Context())

	if err := h.service.DeleteService(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteService", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/categories", h.ListCategories)
	router.GET("/api/v1/categories/:id", h.GetCategory)
	router.POST("/api/v1/categories", h.auth(h.CreateCategory))
	router.PUT("/api/v1/categories/:id", h.auth(h.UpdateCategory))
	router.DELETE("/api/v1/categories/:id", h.auth(h.DeleteCategory))

	router.GET("/api/v1/services", h.ListServices)
	router.GET("/api/v1/services/:id", h.GetService)
	router.POST("/api/v1/services", h.auth(h.CreateService))
	router.PUT("/api/v1/services/:id", h.auth(h.UpdateService))
	router.DELETE("/api/v1/services/:id", h.auth(h.DeleteService))
}

func (h *CatalogHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CatalogHandler) writeSuccess(w http.ResponseWriter, handler string, payload any) {
	if err := httputil.WriteSuccess(w, payload); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *CatalogHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}
