package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/villageline/villageline/pkg/villageline/models"
)

// StatsResponse represents system statistics
type StatsResponse struct {
	TotalGroups      int64 `json:"total_groups"`
	TotalVolunteers  int64 `json:"total_volunteers"`
	TotalShifts      int64 `json:"total_shifts"`
	TotalCalls       int64 `json:"total_calls"`
	EmailsFinished   int64 `json:"emails_finished"`
	EmailsUnfinished int64 `json:"emails_unfinished"`
}

// UpdateEmailStateRequest represents the request to adjust the job gate
type UpdateEmailStateRequest struct {
	InProgress *bool      `json:"in_progress"`
	LastSent   *time.Time `json:"last_sent"`
}

// ListCalls returns call records, newest first
func (h *Handler) ListCalls(c *gin.Context) {
	query := h.db.Order("created_at DESC")
	if groupID := c.Query("group_id"); groupID != "" {
		query = query.Where("user_group_id = ?", groupID)
	}
	if unfinished := c.Query("unfinished"); unfinished == "true" {
		query = query.Where("email_attempted = ? AND email_send_finished = ?", true, false)
	}
	var calls []models.Call
	if err := query.Find(&calls).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch calls"})
		return
	}
	c.JSON(http.StatusOK, calls)
}

// GetCall returns one call record by SID
func (h *Handler) GetCall(c *gin.Context) {
	var call models.Call
	if err := h.db.Preload("UserGroup").Where("sid = ?", c.Param("sid")).First(&call).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
		return
	}
	c.JSON(http.StatusOK, call)
}

// DeleteCall removes a call record. The application itself never deletes
// calls; this exists for housekeeping old records.
func (h *Handler) DeleteCall(c *gin.Context) {
	result := h.db.Where("sid = ?", c.Param("sid")).Delete(&models.Call{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete call"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Call deleted"})
}

// ReconcileCalls re-sends voicemail notifications stuck in the
// attempted-but-unfinished state. The cutoff (minutes, default 60) keeps the
// sweep away from calls whose send is plausibly still in flight.
func (h *Handler) ReconcileCalls(c *gin.Context) {
	minutes := 60
	if m := c.Query("older_than_minutes"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid older_than_minutes"})
			return
		}
		minutes = parsed
	}

	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)
	sent, err := h.notifier.ResendUnfinished(cutoff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconciliation failed", "resent": sent})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resent": sent})
}

// GetEmailState returns the daily-job gate record
func (h *Handler) GetEmailState(c *gin.Context) {
	state, err := models.GetEmailState(h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch email state"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// UpdateEmailState adjusts the gate record, e.g. to clear a claim left by a
// crashed job run.
func (h *Handler) UpdateEmailState(c *gin.Context) {
	state, err := models.GetEmailState(h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch email state"})
		return
	}
	var req UpdateEmailStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := make(map[string]interface{})
	if req.InProgress != nil {
		updates["in_progress"] = *req.InProgress
	}
	if req.LastSent != nil {
		updates["last_sent"] = models.Midnight(*req.LastSent)
	}
	if len(updates) > 0 {
		if err := h.db.Model(&state).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update email state"})
			return
		}
	}
	state, _ = models.GetEmailState(h.db)
	c.JSON(http.StatusOK, state)
}

// Stats returns record counts for the admin dashboard
func (h *Handler) Stats(c *gin.Context) {
	var stats StatsResponse
	h.db.Model(&models.UserGroup{}).Count(&stats.TotalGroups)
	h.db.Model(&models.Volunteer{}).Count(&stats.TotalVolunteers)
	h.db.Model(&models.Shift{}).Count(&stats.TotalShifts)
	h.db.Model(&models.Call{}).Count(&stats.TotalCalls)
	h.db.Model(&models.Call{}).Where("email_send_finished = ?", true).Count(&stats.EmailsFinished)
	h.db.Model(&models.Call{}).Where("email_attempted = ? AND email_send_finished = ?", true, false).
		Count(&stats.EmailsUnfinished)
	c.JSON(http.StatusOK, stats)
}
