package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/villageline/villageline/pkg/villageline/models"
	"github.com/villageline/villageline/pkg/villageline/phonenumber"
	"github.com/villageline/villageline/pkg/villageline/voice"
	"gorm.io/gorm"
)

// Handler handles the record-management API (the admin interface)
type Handler struct {
	db       *gorm.DB
	notifier *voice.Notifier
}

// NewHandler creates a new admin handler
func NewHandler(db *gorm.DB, notifier *voice.Notifier) *Handler {
	return &Handler{db: db, notifier: notifier}
}

// GroupRequest represents the request to create or update a group
type GroupRequest struct {
	Name               string `json:"name" binding:"required"`
	IncomingNumber     string `json:"incoming_number" binding:"required"`
	Greeting           string `json:"greeting"`
	DefaultAction      string `json:"default_action"`
	DefaultDestination string `json:"default_destination"`
	VoicemailEmail     string `json:"voicemail_email" binding:"omitempty,email"`
	VoicemailGreeting  string `json:"voicemail_greeting"`
}

// VolunteerRequest represents the request to create or update a volunteer
type VolunteerRequest struct {
	Name        string `json:"name" binding:"required"`
	Number      string `json:"number" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	SendEmails  *bool  `json:"send_emails"`
	UserGroupID uint   `json:"user_group_id" binding:"required"`
}

// ShiftRequest represents the request to create or update a shift
type ShiftRequest struct {
	VolunteerID uint   `json:"volunteer_id" binding:"required"`
	Day         string `json:"day" binding:"required"`
	StartTime   int    `json:"start_time" binding:"required"`
	EndTime     int    `json:"end_time" binding:"required"`
	UserGroupID uint   `json:"user_group_id" binding:"required"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

func (r GroupRequest) apply(group *models.UserGroup) error {
	incoming, err := phonenumber.ToE164(r.IncomingNumber)
	if err != nil {
		return errors.New("invalid incoming number")
	}
	group.Name = r.Name
	group.IncomingNumber = incoming
	group.Greeting = r.Greeting
	group.VoicemailEmail = r.VoicemailEmail
	group.VoicemailGreeting = r.VoicemailGreeting

	switch models.DefaultAction(r.DefaultAction) {
	case models.DefaultActionVoicemail:
		group.DefaultAction = models.DefaultActionVoicemail
	case models.DefaultActionDestination, "":
		group.DefaultAction = models.DefaultActionDestination
	default:
		return errors.New("invalid default action")
	}

	if r.DefaultDestination != "" {
		destination, err := phonenumber.ToE164(r.DefaultDestination)
		if err != nil {
			return errors.New("invalid default destination")
		}
		group.DefaultDestination = destination
	}
	return nil
}

// ListGroups returns all groups
func (h *Handler) ListGroups(c *gin.Context) {
	var groups []models.UserGroup
	if err := h.db.Order("name").Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetGroup returns a single group with its volunteers
func (h *Handler) GetGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var group models.UserGroup
	if err := h.db.Preload("Volunteers").First(&group, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	c.JSON(http.StatusOK, group)
}

// CreateGroup creates a group
func (h *Handler) CreateGroup(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var group models.UserGroup
	if err := req.apply(&group); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Create(&group).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create group (duplicate incoming number?)"})
		return
	}
	c.JSON(http.StatusCreated, group)
}

// UpdateGroup updates a group
func (h *Handler) UpdateGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var group models.UserGroup
	if err := h.db.First(&group, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.apply(&group); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Save(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
		return
	}
	c.JSON(http.StatusOK, group)
}

// DeleteGroup deletes a group
func (h *Handler) DeleteGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.db.Delete(&models.UserGroup{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}

// ListVolunteers returns volunteers, optionally filtered by group
func (h *Handler) ListVolunteers(c *gin.Context) {
	query := h.db.Order("name")
	if groupID := c.Query("group_id"); groupID != "" {
		query = query.Where("user_group_id = ?", groupID)
	}
	var volunteers []models.Volunteer
	if err := query.Find(&volunteers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch volunteers"})
		return
	}
	c.JSON(http.StatusOK, volunteers)
}

// CreateVolunteer creates a volunteer
func (h *Handler) CreateVolunteer(c *gin.Context) {
	var req VolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	number, err := phonenumber.ToE164(req.Number)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}
	if err := h.db.First(&models.UserGroup{}, req.UserGroupID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown group"})
		return
	}

	volunteer := models.Volunteer{
		Name:        req.Name,
		Number:      number,
		Email:       req.Email,
		SendEmails:  true,
		UserGroupID: req.UserGroupID,
	}
	if req.SendEmails != nil {
		volunteer.SendEmails = *req.SendEmails
	}
	if err := h.db.Create(&volunteer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create volunteer"})
		return
	}
	c.JSON(http.StatusCreated, volunteer)
}

// UpdateVolunteer updates a volunteer
func (h *Handler) UpdateVolunteer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var volunteer models.Volunteer
	if err := h.db.First(&volunteer, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Volunteer not found"})
		return
	}
	var req VolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	number, err := phonenumber.ToE164(req.Number)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}
	if err := h.db.First(&models.UserGroup{}, req.UserGroupID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown group"})
		return
	}
	volunteer.Name = req.Name
	volunteer.Number = number
	volunteer.Email = req.Email
	volunteer.UserGroupID = req.UserGroupID
	if req.SendEmails != nil {
		volunteer.SendEmails = *req.SendEmails
	}
	if err := h.db.Save(&volunteer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update volunteer"})
		return
	}
	c.JSON(http.StatusOK, volunteer)
}

// DeleteVolunteer deletes a volunteer and its shifts
func (h *Handler) DeleteVolunteer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("volunteer_id = ?", id).Delete(&models.Shift{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Volunteer{}, id).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete volunteer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Volunteer deleted"})
}

// ListShifts returns shifts, optionally filtered by group or day
func (h *Handler) ListShifts(c *gin.Context) {
	query := h.db.Preload("Volunteer").Order("id")
	if groupID := c.Query("group_id"); groupID != "" {
		query = query.Where("user_group_id = ?", groupID)
	}
	if day := c.Query("day"); day != "" {
		query = query.Where("day = ?", day)
	}
	var shifts []models.Shift
	if err := query.Find(&shifts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shifts"})
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// CreateShift creates a shift
func (h *Handler) CreateShift(c *gin.Context) {
	var req ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shift := models.Shift{
		VolunteerID: req.VolunteerID,
		Day:         req.Day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		UserGroupID: req.UserGroupID,
	}
	if err := h.db.Create(&shift).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// UpdateShift updates a shift
func (h *Handler) UpdateShift(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var shift models.Shift
	if err := h.db.First(&shift, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}
	var req ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shift.VolunteerID = req.VolunteerID
	shift.Day = req.Day
	shift.StartTime = req.StartTime
	shift.EndTime = req.EndTime
	shift.UserGroupID = req.UserGroupID
	if err := h.db.Save(&shift).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, shift)
}

// DeleteShift deletes a shift
func (h *Handler) DeleteShift(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.db.Delete(&models.Shift{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete shift"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted"})
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/groups", h.ListGroups)
	rg.POST("/groups", h.CreateGroup)
	rg.GET("/groups/:id", h.GetGroup)
	rg.PUT("/groups/:id", h.UpdateGroup)
	rg.DELETE("/groups/:id", h.DeleteGroup)

	rg.GET("/volunteers", h.ListVolunteers)
	rg.POST("/volunteers", h.CreateVolunteer)
	rg.PUT("/volunteers/:id", h.UpdateVolunteer)
	rg.DELETE("/volunteers/:id", h.DeleteVolunteer)

	rg.GET("/shifts", h.ListShifts)
	rg.POST("/shifts", h.CreateShift)
	rg.PUT("/shifts/:id", h.UpdateShift)
	rg.DELETE("/shifts/:id", h.DeleteShift)

	rg.GET("/calls", h.ListCalls)
	rg.GET("/calls/:sid", h.GetCall)
	rg.DELETE("/calls/:sid", h.DeleteCall)
	rg.POST("/calls/reconcile", h.ReconcileCalls)

	rg.GET("/emailstate", h.GetEmailState)
	rg.PUT("/emailstate", h.UpdateEmailState)

	rg.GET("/stats", h.Stats)
}
