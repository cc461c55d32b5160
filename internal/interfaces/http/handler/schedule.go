package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	reviewapp "github.com/hospfin/backend/internal/application/review"
)

const defaultUpcomingDays = 7

// ScheduleHandler handles review schedule API endpoints
type ScheduleHandler struct {
	BaseHandler
	scheduleService *reviewapp.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(scheduleService *reviewapp.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
	}
}

// UpdateScheduleStatusRequest represents a direct status transition request
type UpdateScheduleStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=in_progress completed cancelled"`
}

// ListSchedules returns a filtered, paginated page of the hospital's schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter reviewapp.ScheduleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	page, err := h.scheduleService.ListSchedules(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetUpcoming returns pending schedules due within the requested window
func (h *ScheduleHandler) GetUpcoming(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	days := defaultUpcomingDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.Error(c, http.StatusBadRequest, "INVALID_DAYS", "Invalid days parameter")
			return
		}
		days = parsed
	}

	schedules, err := h.scheduleService.GetUpcoming(c.Request.Context(), actor, days)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, schedules)
}

// GetOverdue returns schedules past their date, reconciling status lazily
func (h *ScheduleHandler) GetOverdue(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	schedules, err := h.scheduleService.GetOverdue(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, schedules)
}

// GetScheduleStats returns schedule counts per status
func (h *ScheduleHandler) GetScheduleStats(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.scheduleService.GetScheduleStats(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// GetSchedule returns a single schedule by ID
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid schedule ID")
		return
	}

	schedule, err := h.scheduleService.GetScheduleByID(c.Request.Context(), actor, scheduleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, schedule)
}

// CreateSchedule creates a pending review schedule
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req reviewapp.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	schedule, err := h.scheduleService.CreateSchedule(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, schedule)
}

// UpdateSchedule replaces an open schedule's editable fields
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid schedule ID")
		return
	}

	var req reviewapp.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	schedule, err := h.scheduleService.UpdateSchedule(c.Request.Context(), actor, scheduleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, schedule)
}

// CompleteSchedule marks a schedule as completed by the actor
func (h *ScheduleHandler) CompleteSchedule(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid schedule ID")
		return
	}

	schedule, err := h.scheduleService.CompleteSchedule(c.Request.Context(), actor, scheduleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, schedule)
}

// UpdateScheduleStatus applies a direct status transition
func (h *ScheduleHandler) UpdateScheduleStatus(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid schedule ID")
		return
	}

	var req UpdateScheduleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	var schedule *reviewapp.ScheduleResponse
	switch req.Status {
	case "in_progress":
		schedule, err = h.scheduleService.StartSchedule(c.Request.Context(), actor, scheduleID)
	case "completed":
		schedule, err = h.scheduleService.CompleteSchedule(c.Request.Context(), actor, scheduleID)
	case "cancelled":
		schedule, err = h.scheduleService.CancelSchedule(c.Request.Context(), actor, scheduleID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, schedule)
}

// AddComment appends a comment to a schedule
func (h *ScheduleHandler) AddComment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid schedule ID")
		return
	}

	var req reviewapp.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	schedule, err := h.scheduleService.AddComment(c.Request.Context(), actor, scheduleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, schedule)
}

// DeleteSchedule deletes a schedule
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid schedule ID")
		return
	}

	if err := h.scheduleService.DeleteSchedule(c.Request.Context(), actor, scheduleID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, nil)
}
