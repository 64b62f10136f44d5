package handlers

import (
	"mime"
	"net/http"

	"github.com/creatorhub/apiserver/internal/services"
	"github.com/creatorhub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthHandler serves registration and token endpoints.
type AuthHandler struct {
	userService *services.UserService
	authService *services.AuthService
	log         *zap.Logger
}

func NewAuthHandler(userService *services.UserService, authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		log:         log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, authService *services.AuthService, log *zap.Logger) {
	handler := NewAuthHandler(userService, authService, log)

	r.Post("/register", handler.Register)
	r.Post("/token", handler.Token)
}

type RegisterRequest struct {
	Username             string  `json:"username"`
	Email                string  `json:"email"`
	Password             string  `json:"password"`
	FullName             *string `json:"full_name"`
	Bio                  *string `json:"bio"`
	ProfilePictureURL    *string `json:"profile_picture_url"`
	SocialLinks          *string `json:"social_links"`
	Role                 string  `json:"role"`
	AffiliateID          *string `json:"affiliate_id"`
	UserTypes            []int64 `json:"user_types"`
	ReferringAffiliateID *string `json:"referring_affiliate_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and returns its public profile.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), services.Registration{
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		FullName:             req.FullName,
		Bio:                  req.Bio,
		ProfilePictureURL:    req.ProfilePictureURL,
		SocialLinks:          req.SocialLinks,
		Role:                 types.Role(req.Role),
		AffiliateID:          req.AffiliateID,
		UserTypeIDs:          req.UserTypes,
		ReferringAffiliateID: req.ReferringAffiliateID,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Token exchanges credentials for a bearer token. It accepts an OAuth2
// password form or a JSON body.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}
