package schedule

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/villageline/villageline/pkg/villageline/models"
	"gorm.io/gorm"
)

// Handler serves the read-only schedule inspection views
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new schedule handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

var volunteersPage = template.Must(template.New("volunteers").Parse(`<!DOCTYPE html>
<html>
<head><title>Community Line - Volunteers</title></head>
<body>
  <h1>{{.GroupName}}</h1>
  <h2>{{.Day}} at {{.HourLabel}}</h2>
  {{if .Shifts}}
  <ul>
    {{range .Shifts}}<li>{{.Volunteer.Name}} ({{.StartLabel}}-{{.EndLabel}})</li>
    {{end}}
  </ul>
  {{else}}
  <p>No volunteers are on shift at this time.</p>
  {{end}}
</body>
</html>
`))

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Community Line</title></head>
<body>
  <h1>Community Line</h1>
  <ul>
    {{range .Groups}}<li>{{.Name}} ({{.IncomingNumber}})</li>
    {{end}}
  </ul>
</body>
</html>
`))

type shiftRow struct {
	Volunteer  models.Volunteer
	StartLabel string
	EndLabel   string
}

// Volunteers renders the shifts active for a group at a given day and hour.
func (h *Handler) Volunteers(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("group_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}
	day := c.Param("day")
	hour, err := strconv.Atoi(c.Param("hour"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hour"})
		return
	}

	var group models.UserGroup
	if err := h.db.First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	shifts, err := ShiftsAt(h.db, group.ID, day, hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shifts"})
		return
	}

	rows := make([]shiftRow, len(shifts))
	for i, s := range shifts {
		rows[i] = shiftRow{
			Volunteer:  s.Volunteer,
			StartLabel: models.HourLabel(s.StartTime),
			EndLabel:   models.HourLabel(s.EndTime),
		}
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = volunteersPage.Execute(c.Writer, gin.H{
		"GroupName": group.Name,
		"Day":       day,
		"HourLabel": models.HourLabel(hour),
		"Shifts":    rows,
	})
}

// Index renders the landing page listing the configured lines.
func (h *Handler) Index(c *gin.Context) {
	var groups []models.UserGroup
	if err := h.db.Order("name").Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = indexPage.Execute(c.Writer, gin.H{"Groups": groups})
}

// RegisterRoutes registers the login-gated schedule views
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Index)
	rg.GET("/volunteers/:group_id/:day/:hour", h.Volunteers)
}
