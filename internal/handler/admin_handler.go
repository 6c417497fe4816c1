package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/response"
	"github.com/studyhall/studyhall-backend/internal/service"
	"github.com/studyhall/studyhall-backend/internal/validator"
)

// AdminHandler handles user administration and event log endpoints.
type AdminHandler struct {
	userService *service.UserService
	logbook     *service.Logbook
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userService *service.UserService, logbook *service.Logbook) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		logbook:     logbook,
	}
}

// ListUsers godoc
// GET /api/v1/admin/users
// Lists all registered accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// ToggleAdmin godoc
// PUT /api/v1/admin/users/admin
// Grants or revokes the admin flag for a user.
func (h *AdminHandler) ToggleAdmin(c *gin.Context) {
	var req model.ToggleAdminRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.userService.ToggleAdmin(c.Request.Context(), req.Username, req.Admin); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// WipeUserResults godoc
// DELETE /api/v1/admin/users/:username/results
// Deletes every result recorded for a user.
func (h *AdminHandler) WipeUserResults(c *gin.Context) {
	username := c.Param("username")

	if err := h.userService.WipeResults(c.Request.Context(), username); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNoResults):
			response.Fail(c, http.StatusNotFound, response.ErrNoResults)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// DeleteUser godoc
// DELETE /api/v1/admin/users/:username
// Deletes an account along with its results and running tests.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	username := c.Param("username")

	if err := h.userService.Delete(c.Request.Context(), username); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListEvents godoc
// GET /api/v1/admin/events?limit=100
// Returns the most recent platform events, newest first.
func (h *AdminHandler) ListEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.logbook.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}
