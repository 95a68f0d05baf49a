package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daneshm/school-records-api/internal/models"
	"github.com/daneshm/school-records-api/internal/service"
	"github.com/daneshm/school-records-api/pkg/response"
)

// DashboardHandler serves the roster view with derived summaries.
type DashboardHandler struct {
	summaries *service.SummaryService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(summaries *service.SummaryService) *DashboardHandler {
	return &DashboardHandler{summaries: summaries}
}

// Roster godoc
// @Summary Student roster with average grade and attendance percentage
// @Tags Dashboard
// @Produce json
// @Param search query string false "Search by name, email or roll number"
// @Param class query string false "Filter by class"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /dashboard/roster [get]
func (h *DashboardHandler) Roster(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Class = c.Query("class")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	rows, pagination, err := h.summaries.Roster(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// StudentPerformance godoc
// @Summary Performance summary for one student
// @Tags Dashboard
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/summary [get]
func (h *DashboardHandler) StudentPerformance(c *gin.Context) {
	summary, err := h.summaries.StudentPerformance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
