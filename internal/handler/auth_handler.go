package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-backend/internal/middleware"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/response"
	"github.com/studyhall/studyhall-backend/internal/service"
	"github.com/studyhall/studyhall-backend/internal/validator"
)

// AuthHandler handles authentication and account endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	userService  *service.UserService
	mediaService *service.MediaService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	mediaService *service.MediaService,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		mediaService: mediaService,
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates a new account and returns a session token for it.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	token, err := h.authService.GenerateToken(c.Request.Context(), user)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

// Login godoc
// POST /api/v1/auth/login
// Authenticates a user and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateToken(c.Request.Context(), user)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Invalidates the server-side session of the current token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.InvalidateSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Profile godoc
// GET /api/v1/auth/me
// Returns the full profile of the authenticated user, including running
// tests and result history.
func (h *AuthHandler) Profile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	profile, err := h.userService.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}

// UpdateAvatar godoc
// PUT /api/v1/auth/me/avatar
// Replaces the authenticated user's avatar with an uploaded image.
func (h *AuthHandler) UpdateAvatar(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	avatar, err := h.mediaService.SaveAvatar(file, fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if err := h.userService.SetAvatar(c.Request.Context(), claims.UserID, avatar); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"avatar": avatar})
}
