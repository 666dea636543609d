package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"lostfound-backend/internal/repositories"
	"lostfound-backend/internal/telemetry"
)

// ReportHandler serves abuse reports and user blocking.
type ReportHandler struct {
	reportRepo repositories.ReportRepository
	audit      *telemetry.AuditEmitter
}

// NewReportHandler builds a ReportHandler.
func NewReportHandler(reportRepo repositories.ReportRepository, audit *telemetry.AuditEmitter) *ReportHandler {
	return &ReportHandler{reportRepo: reportRepo, audit: audit}
}

// Report files a complaint against a user, a publication, or both. At least
// one target is required.
func (h *ReportHandler) Report(c *gin.Context) {
	var req struct {
		ReportedUserID *int   `json:"reportedUserId"`
		PublicationID  *int   `json:"publicationId"`
		Message        string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ReportedUserID == nil && req.PublicationID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a reported user or publication is required"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.reportRepo.CreateReport(c.Request.Context(), userID, req.ReportedUserID, req.PublicationID, req.Message); err != nil {
		log.Printf("create report failed for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit report"})
		return
	}

	h.audit.Emit(c.Request.Context(), "WARN",
		fmt.Sprintf("abuse report filed (user=%v publication=%v)", intOrNil(req.ReportedUserID), intOrNil(req.PublicationID)),
		requestIDFromContext(c), userIDFromContext(c))

	c.JSON(http.StatusOK, gin.H{"status": "report submitted"})
}

// Block hides another user from the caller; repeated blocks are no-ops.
func (h *ReportHandler) Block(c *gin.Context) {
	var req struct {
		BlockedUserID int `json:"blockedUserId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if err := h.reportRepo.BlockUser(c.Request.Context(), userID, req.BlockedUserID); err != nil {
		log.Printf("block user failed for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to block user"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("user blocked (blocked=%d)", req.BlockedUserID),
		requestIDFromContext(c), userIDFromContext(c))

	c.JSON(http.StatusOK, gin.H{"status": "user blocked"})
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
