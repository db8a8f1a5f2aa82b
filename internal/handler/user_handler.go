package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vibelab/vibe-api/internal/dto"
	"github.com/vibelab/vibe-api/internal/middleware"
	"github.com/vibelab/vibe-api/internal/service"
	"github.com/vibelab/vibe-api/pkg/response"
)

// UserHandler handles user HTTP requests
type UserHandler struct {
	authService service.AuthService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Me returns the current user
// GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.InternalError(c)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), claims.UserID())
	if err != nil {
		response.InternalError(c)
		return
	}
	if user == nil {
		response.NotFound(c, "User not found")
		return
	}

	response.Success(c, service.ToUserResponse(user))
}

// UpdateMe updates the current user's profile
// PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.InternalError(c)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.UpdateUser(c.Request.Context(), claims.UserID(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.Success(c, service.ToUserResponse(user))
}

// ChangePassword changes the current user's password
// PUT /api/v1/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.InternalError(c)
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), claims.UserID(), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, "Current password is incorrect")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "User not found")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Success(c, gin.H{"message": "Password changed successfully"})
}

// List returns users, admin only
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.authService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalError(c)
		return
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, service.ToUserResponse(user))
	}

	response.Success(c, out)
}

// GetByID returns a user by id, admin only
// GET /api/v1/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}
	if user == nil {
		response.NotFound(c, "User not found")
		return
	}

	response.Success(c, service.ToUserResponse(user))
}

// Delete deletes a user by id, admin only
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.authService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.Success(c, gin.H{"message": "User deleted"})
}
