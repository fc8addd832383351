package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"masterbook/internal/accounts/service"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountHandler struct {
	service service.AccountService
	auth    func(httprouter.Handle) httprouter.Handle
	log     *logger.Logger
}

func NewAccountHandler(
	service service.AccountService,
	auth func(httprouter.Handle) httprouter.Handle,
	log *logger.Logger,
) *AccountHandler {
	return &AccountHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Register", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Register", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Login", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := bearerToken(r)
	if err := h.service.Logout(r.Context(), token); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Logout", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		if err := httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
			Error: "authentication required",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "Me", "operation", "WriteJSON", "error", err)
		}
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) ListMasters(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	masters, err := h.service.ListMasters(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListMasters", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, masters); err != nil {
		h.log.Error("failed to write success response", "handler", "ListMasters", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) GetMaster(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	master, err := h.service.GetMaster(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetMaster", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, master); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMaster", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/register", h.Register)
	router.POST("/api/v1/auth/login", h.Login)
	router.POST("/api/v1/auth/logout", h.Logout)
	router.GET("/api/v1/auth/me", h.auth(h.Me))
	router.GET("/api/v1/masters", h.ListMasters)
	router.GET("/api/v1/masters/:id", h.GetMaster)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
