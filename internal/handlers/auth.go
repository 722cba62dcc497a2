package handlers

import (
	"errors"
	"net/http"

	"github.com/HoVietThang190704/social-app-sub001/internal/auth"
	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/HoVietThang190704/social-app-sub001/internal/util"
	"github.com/gin-gonic/gin"
)

// Register creates a new account with email/password
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondConflict(c, "email")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username")
		default:
			util.RespondInternalError(c, "failed to register")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates an existing account
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid email or password")
		default:
			util.RespondInternalError(c, "failed to log in")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's profile
func (h *Handlers) Me(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		util.RespondUnauthorized(c)
		return
	}

	user, ok := userInterface.(*models.User)
	if !ok {
		util.RespondUnauthorized(c, "invalid user context")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
