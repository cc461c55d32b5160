package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	insightapp "github.com/hospfin/backend/internal/application/insight"
)

const defaultHistoryLimit = 20

// QuickActionsHandler handles bulk archive and analysis API endpoints
type QuickActionsHandler struct {
	BaseHandler
	archiveService  *insightapp.ArchiveService
	analysisService *insightapp.AnalysisService
}

// NewQuickActionsHandler creates a new QuickActionsHandler
func NewQuickActionsHandler(
	archiveService *insightapp.ArchiveService,
	analysisService *insightapp.AnalysisService,
) *QuickActionsHandler {
	return &QuickActionsHandler{
		archiveService:  archiveService,
		analysisService: analysisService,
	}
}

// ArchiveReports archives approved reports older than the cutoff
func (h *QuickActionsHandler) ArchiveReports(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req insightapp.ArchiveOldReportsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.archiveService.ArchiveOldReports(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GenerateAnalysis produces a financial analysis over the recent window
func (h *QuickActionsHandler) GenerateAnalysis(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req insightapp.GenerateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.analysisService.GenerateAnalysis(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListAnalyses returns the hospital's most recent analyses
func (h *QuickActionsHandler) ListAnalyses(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	limit, ok := h.limitParam(c)
	if !ok {
		return
	}

	analyses, err := h.analysisService.GetAnalyses(c.Request.Context(), actor, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, analyses)
}

// ListArchiveLogs returns the hospital's most recent archive runs
func (h *QuickActionsHandler) ListArchiveLogs(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	limit, ok := h.limitParam(c)
	if !ok {
		return
	}

	logs, err := h.archiveService.GetArchiveLogs(c.Request.Context(), actor, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, logs)
}

// limitParam reads the limit query parameter, writing the error response itself
func (h *QuickActionsHandler) limitParam(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultHistoryLimit, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		h.Error(c, http.StatusBadRequest, "INVALID_LIMIT", "Invalid limit parameter")
		return 0, false
	}
	return parsed, true
}
