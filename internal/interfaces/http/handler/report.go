package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	reportapp "github.com/hospfin/backend/internal/application/report"
	"github.com/hospfin/backend/internal/domain/identity"
)

// ReportHandler handles financial report API endpoints
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// ListReports returns a filtered, paginated page of the hospital's reports
func (h *ReportHandler) ListReports(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter reportapp.ReportListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	page, err := h.reportService.ListReports(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetReportStats returns report counts per lifecycle status
func (h *ReportHandler) GetReportStats(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.reportService.GetReportStats(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// GetReport returns a single report by ID
func (h *ReportHandler) GetReport(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid report ID")
		return
	}

	report, err := h.reportService.GetReportByID(c.Request.Context(), actor, reportID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// CreateReport creates a new draft report
func (h *ReportHandler) CreateReport(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req reportapp.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, report)
}

// UpdateReport replaces a draft report's figures
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid report ID")
		return
	}

	var req reportapp.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	report, err := h.reportService.UpdateReport(c.Request.Context(), actor, reportID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// DeleteReport deletes a draft report
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid report ID")
		return
	}

	if err := h.reportService.DeleteReport(c.Request.Context(), actor, reportID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, nil)
}

// SubmitReport moves a draft report into review
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	h.transition(c, h.reportService.SubmitReport)
}

// ApproveReport approves a submitted report
func (h *ReportHandler) ApproveReport(c *gin.Context) {
	h.transition(c, h.reportService.ApproveReport)
}

// ArchiveReport archives an approved report
func (h *ReportHandler) ArchiveReport(c *gin.Context) {
	h.transition(c, h.reportService.ArchiveReport)
}

// DuplicateReport clones a report into a fresh draft
func (h *ReportHandler) DuplicateReport(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid report ID")
		return
	}

	report, err := h.reportService.DuplicateReport(c.Request.Context(), actor, reportID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, report)
}

// ExportReport returns a report as a structured export document
func (h *ReportHandler) ExportReport(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid report ID")
		return
	}

	export, err := h.reportService.ExportReport(c.Request.Context(), actor, reportID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, export)
}

// transition runs a lifecycle operation identified only by the report ID
func (h *ReportHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*reportapp.ReportResponse, error),
) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid report ID")
		return
	}

	report, err := fn(c.Request.Context(), actor, reportID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
