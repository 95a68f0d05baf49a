package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daneshm/school-records-api/internal/models"
	"github.com/daneshm/school-records-api/internal/service"
	"github.com/daneshm/school-records-api/pkg/response"
)

// ExportHandler serves roster downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Roster godoc
// @Summary Download the performance roster
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param class query string false "Filter by class"
// @Success 200 {file} binary
// @Router /exports/roster [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	format := service.ParseExportFormat(c.DefaultQuery("format", "csv"))
	filter := models.StudentFilter{Class: c.Query("class")}

	result, err := h.exports.Roster(c.Request.Context(), format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
