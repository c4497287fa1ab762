package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-ops-api/internal/dto"
	"github.com/noah-isme/tutor-ops-api/internal/models"
	"github.com/noah-isme/tutor-ops-api/internal/service"
	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
	"github.com/noah-isme/tutor-ops-api/pkg/response"
)

// ReportHandler exposes the report lifecycle over HTTP.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs the report endpoints.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Create starts a report build. With async=true the response carries the
// GENERATING placeholder and the build continues in the background.
// POST /api/v1/reports
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	reportType := models.ReportType(req.Type)
	dateRange := models.DateRange{Start: req.Start, End: req.End}
	filters := models.ReportFilters{StudentIDs: req.StudentIDs, CourseID: req.CourseID}

	if req.Async {
		report, err := h.reports.Enqueue(c.Request.Context(), reportType, dateRange, filters)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, report, nil)
		return
	}

	report, err := h.reports.Build(c.Request.Context(), reportType, dateRange, filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Preview computes a report body without persisting it.
// POST /api/v1/reports/preview
func (h *ReportHandler) Preview(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	result, cached, err := h.reports.Preview(c.Request.Context(),
		models.ReportType(req.Type),
		models.DateRange{Start: req.Start, End: req.End},
		models.ReportFilters{StudentIDs: req.StudentIDs, CourseID: req.CourseID},
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"cached": cached})
}

// Get returns a persisted report, whatever its status.
// GET /api/v1/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// List returns recent report invocations.
// GET /api/v1/reports
func (h *ReportHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	reports, err := h.reports.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Delete removes a persisted report.
// DELETE /api/v1/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export renders a completed report as a file and returns a signed download
// token for it.
// POST /api/v1/reports/:id/export
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	artifact, err := h.exports.Generate(report, models.ExportFormat(req.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, artifact)
}

// Download streams an exported file referenced by a signed token.
// GET /api/v1/reports/download?token=...
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}

	file, filename, err := h.exports.ResolveDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), filename)
}
