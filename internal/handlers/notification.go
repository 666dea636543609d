package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lostfound-backend/internal/models"
	"lostfound-backend/internal/repositories"
)

// NotificationHandler serves the in-app notification endpoints.
type NotificationHandler struct {
	notifRepo repositories.NotificationRepository
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(notifRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifRepo: notifRepo}
}

// List returns the authenticated user's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")

	notifs, err := h.notifRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("list notifications failed for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifs})
}

// MarkRead flips the read flag on one of the user's notifications.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notifID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.notifRepo.MarkRead(c.Request.Context(), notifID, userID); err != nil {
		log.Printf("mark notification %d read failed: %v", notifID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
