package handlers

import (
	"net/http"
	"strings"

	"github.com/creatorhub/apiserver/internal/auth"
	"github.com/creatorhub/apiserver/internal/services"
	"github.com/creatorhub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler serves profile and account administration endpoints.
type UserHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

func NewUserHandler(userService *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// UserRouter registers user routes. Every route requires an authenticated
// user.
func UserRouter(r chi.Router, userService *services.UserService, requireUser func(http.Handler) http.Handler, log *zap.Logger) {
	handler := NewUserHandler(userService, log)

	r.Use(requireUser)
	r.Get("/me", handler.Me)
	r.Put("/me", handler.UpdateMe)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.With(RequireCapability(auth.CapManageUsers)).Patch("/role", handler.SetRole)
		r.With(RequireCapability(auth.CapManageUsers)).Patch("/active", handler.SetActive)
	})
}

type UpdateProfileRequest struct {
	Email             *string  `json:"email"`
	Password          *string  `json:"password"`
	FullName          *string  `json:"full_name"`
	Bio               *string  `json:"bio"`
	ProfilePictureURL *string  `json:"profile_picture_url"`
	SocialLinks       *string  `json:"social_links"`
	UserTypes         *[]int64 `json:"user_types"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, services.ErrUnauthorized.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, services.ErrUnauthorized.Error())
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	changes := services.ProfileChanges{
		Email:             req.Email,
		Password:          req.Password,
		FullName:          req.FullName,
		Bio:               req.Bio,
		ProfilePictureURL: req.ProfilePictureURL,
		SocialLinks:       req.SocialLinks,
	}
	if req.UserTypes != nil {
		changes.UserTypeIDs = *req.UserTypes
		changes.ReplaceUserTypes = true
	}

	updated, err := h.userService.UpdateProfile(r.Context(), actor, changes)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, services.ErrUnauthorized.Error())
		return
	}

	user, err := h.userService.GetVisible(r.Context(), actor, userIDParam(r))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, services.ErrUnauthorized.Error())
		return
	}

	var req SetRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.SetRole(r.Context(), actor, userIDParam(r), types.Role(strings.TrimSpace(req.Role)))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, services.ErrUnauthorized.Error())
		return
	}

	var req SetActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}

	user, err := h.userService.SetActive(r.Context(), actor, userIDParam(r), *req.IsActive)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func userIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "userID"))
}
