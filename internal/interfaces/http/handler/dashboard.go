package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	dashboardapp "github.com/hospfin/backend/internal/application/dashboard"
)

const defaultActivityLimit = 10

// DashboardHandler handles dashboard aggregation API endpoints
type DashboardHandler struct {
	BaseHandler
	dashboardService *dashboardapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *dashboardapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetStats returns the hospital's headline dashboard figures
func (h *DashboardHandler) GetStats(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.dashboardService.GetStats(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// GetRevenueChart returns monthly revenue points for a year
func (h *DashboardHandler) GetRevenueChart(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	year, err := h.yearParam(c)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_YEAR", "Invalid year parameter")
		return
	}

	points, err := h.dashboardService.GetRevenueChart(c.Request.Context(), actor, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, points)
}

// GetExpenseChart returns monthly expense points for a year
func (h *DashboardHandler) GetExpenseChart(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	year, err := h.yearParam(c)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_YEAR", "Invalid year parameter")
		return
	}

	points, err := h.dashboardService.GetExpenseChart(c.Request.Context(), actor, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, points)
}

// GetProfitChart returns monthly revenue/expense/profit points for a year
func (h *DashboardHandler) GetProfitChart(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	year, err := h.yearParam(c)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_YEAR", "Invalid year parameter")
		return
	}

	points, err := h.dashboardService.GetProfitChart(c.Request.Context(), actor, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, points)
}

// GetBalanceSheetChart returns the latest report's balance sheet slices
func (h *DashboardHandler) GetBalanceSheetChart(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	slices, err := h.dashboardService.GetBalanceSheetChart(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, slices)
}

// GetFinancialRatios returns liquidity, leverage and margin ratios
func (h *DashboardHandler) GetFinancialRatios(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	ratios, err := h.dashboardService.GetFinancialRatios(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ratios)
}

// GetComparativeAnalysis returns the year-over-year comparison
func (h *DashboardHandler) GetComparativeAnalysis(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	analysis, err := h.dashboardService.GetComparativeAnalysis(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, analysis)
}

// GetRecentActivity returns the most recent report and schedule events
func (h *DashboardHandler) GetRecentActivity(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.Error(c, http.StatusBadRequest, "INVALID_LIMIT", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	activity, err := h.dashboardService.GetRecentActivity(c.Request.Context(), actor, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, activity)
}

// yearParam reads the year query parameter, defaulting to the current year
func (h *DashboardHandler) yearParam(c *gin.Context) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	return strconv.Atoi(raw)
}
