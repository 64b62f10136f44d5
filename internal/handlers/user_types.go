package handlers

import (
	"net/http"
	"strconv"

	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserTypeHandler struct {
	userTypeService *services.UserTypeService
	log             *zap.Logger
}

func NewUserTypeHandler(userTypeService *services.UserTypeService, log *zap.Logger) *UserTypeHandler {
	return &UserTypeHandler{userTypeService: userTypeService, log: log}
}

// UserTypeRouter registers user type option routes. Listing is public;
// changes require manage_users.
func UserTypeRouter(r chi.Router, userTypeService *services.UserTypeService, requireUser func(http.Handler) http.Handler, log *zap.Logger) {
	handler := NewUserTypeHandler(userTypeService, log)
	manage := chi.Chain(requireUser, RequireCapability(auth.CapManageUsers))

	r.Get("/options", handler.List)
	r.With(manage...).Post("/options", handler.Create)
	r.With(manage...).Put("/options/{optionID}", handler.Update)
}

type UserTypeRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (h *UserTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	options, err := h.userTypeService.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

func (h *UserTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req UserTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	option, err := h.userTypeService.Create(r.Context(), services.UserTypeInput(req))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, option)
}

func (h *UserTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "optionID"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid option id")
		return
	}

	var req UserTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	option, err := h.userTypeService.Update(r.Context(), id, services.UserTypeInput(req))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, option)
}
