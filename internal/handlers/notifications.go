package handlers

import (
	"errors"
	"net/http"

	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/HoVietThang190704/social-app-sub001/internal/notifications"
	"github.com/HoVietThang190704/social-app-sub001/internal/util"
	"github.com/gin-gonic/gin"
)

// GetNotifications lists the caller's inbox, newest first. Admins may pass
// ?user_id= to inspect another user's inbox.
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID := c.GetString("user_id")

	if override := c.Query("user_id"); override != "" && override != userID {
		if !isAdmin(c) {
			util.RespondForbidden(c, "admin access required")
			return
		}
		userID = override
	}

	opts := notifications.ListOptions{
		Page:   util.ParseInt(c.DefaultQuery("page", "1"), 1),
		Limit:  util.ParseInt(c.DefaultQuery("limit", "10"), notifications.DefaultLimit),
		Status: c.DefaultQuery("status", notifications.StatusAll),
	}

	result, err := h.notifications.List(c.Request.Context(), userID, opts)
	if err != nil {
		util.RespondInternalError(c, "failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetNotificationSummary returns total, unread and read counters
func (h *Handlers) GetNotificationSummary(c *gin.Context) {
	userID := c.GetString("user_id")

	summary, err := h.notifications.GetSummary(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to summarize notifications")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// MarkNotificationRead marks a single notification as read. Repeating the
// call is harmless and returns the same notification.
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID := c.GetString("user_id")
	notificationID := c.Param("id")

	notification, err := h.notifications.MarkAsRead(c.Request.Context(), userID, notificationID)
	if err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			util.RespondNotFound(c, "notification")
			return
		}
		util.RespondInternalError(c, "failed to mark notification read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// MarkAllNotificationsRead marks every unread notification of the caller
// read and reports how many changed
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID := c.GetString("user_id")

	result, err := h.notifications.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SendNotification delivers a notification to one user (admin only)
func (h *Handlers) SendNotification(c *gin.Context) {
	var input notifications.SendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if input.Audience == "" {
		input.Audience = notifications.AudienceSingleUser
	}

	result, err := h.notifications.Send(c.Request.Context(), input)
	if err != nil {
		respondSendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// BroadcastNotification delivers a notification to every user (admin only)
func (h *Handlers) BroadcastNotification(c *gin.Context) {
	var input notifications.SendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	input.Audience = notifications.AudienceAllUsers
	input.TargetUserID = ""

	result, err := h.notifications.Send(c.Request.Context(), input)
	if err != nil {
		respondSendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func respondSendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notifications.ErrInvalidAudience):
		util.RespondValidationError(c, "audience", err.Error())
	case errors.Is(err, notifications.ErrTitleRequired):
		util.RespondValidationError(c, "title", err.Error())
	case errors.Is(err, notifications.ErrMessageRequired):
		util.RespondValidationError(c, "message", err.Error())
	case errors.Is(err, notifications.ErrTargetRequired):
		util.RespondValidationError(c, "targetUserId", err.Error())
	case errors.Is(err, notifications.ErrTargetNotFound):
		util.RespondNotFound(c, "target user")
	default:
		util.RespondInternalError(c, "failed to send notification")
	}
}

func isAdmin(c *gin.Context) bool {
	userInterface, exists := c.Get("user")
	if !exists {
		return false
	}
	user, ok := userInterface.(*models.User)
	return ok && user.IsAdmin()
}
