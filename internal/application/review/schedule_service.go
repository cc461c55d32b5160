package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/review"
	"github.com/hospfin/backend/internal/domain/shared"
)

const defaultUpcomingWindowDays = 7

// ScheduleService provides application-level review schedule operations.
// Pending schedules whose date has passed are reconciled to overdue on
// every read path, so callers always see the effective status.
type ScheduleService struct {
	scheduleRepo review.ScheduleRepository
	reportRepo   finance.FinancialReportRepository
	now          func() time.Time
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(scheduleRepo review.ScheduleRepository, reportRepo finance.FinancialReportRepository) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		reportRepo:   reportRepo,
		now:          time.Now,
	}
}

// CreateScheduleRequest represents a request to create a review schedule
type CreateScheduleRequest struct {
	Title         string     `json:"title" binding:"required,max=200"`
	Description   string     `json:"description" binding:"omitempty,max=1000"`
	ReviewType    string     `json:"review_type" binding:"required,oneof=monthly quarterly annual audit special"`
	ScheduledDate time.Time  `json:"scheduled_date" binding:"required"`
	AssignedTo    uuid.UUID  `json:"assigned_to" binding:"required"`
	Priority      string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	ReportID      *uuid.UUID `json:"report_id"`
	ReminderDays  []int      `json:"reminder_days"`
}

// UpdateScheduleRequest represents a request to update a review schedule
type UpdateScheduleRequest struct {
	Title         string    `json:"title" binding:"required,max=200"`
	Description   string    `json:"description" binding:"omitempty,max=1000"`
	ReviewType    string    `json:"review_type" binding:"required,oneof=monthly quarterly annual audit special"`
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	AssignedTo    uuid.UUID `json:"assigned_to" binding:"required"`
	Priority      string    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

// AddCommentRequest represents a request to comment on a schedule
type AddCommentRequest struct {
	Text string `json:"text" binding:"required,max=500"`
}

// ScheduleListFilter defines filtering options for schedule list queries
type ScheduleListFilter struct {
	Status     string    `form:"status"`
	ReviewType string    `form:"review_type"`
	AssignedTo uuid.UUID `form:"assigned_to"`
	Priority   string    `form:"priority"`
	Page       int       `form:"page"`
	PageSize   int       `form:"page_size"`
}

// ScheduleResponse represents a review schedule in API responses
type ScheduleResponse struct {
	ID            uuid.UUID         `json:"id"`
	HospitalID    string            `json:"hospital_id"`
	ReportID      *uuid.UUID        `json:"report_id,omitempty"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	ReviewType    string            `json:"review_type"`
	ScheduledDate time.Time         `json:"scheduled_date"`
	AssignedTo    uuid.UUID         `json:"assigned_to"`
	Status        string            `json:"status"`
	Priority      string            `json:"priority"`
	Comments      []review.Comment  `json:"comments"`
	Reminders     []review.Reminder `json:"reminders"`
	CompletedBy   *uuid.UUID        `json:"completed_by,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	CreatedBy     *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Version       int               `json:"version"`
}

// ScheduleStats summarizes schedule counts per status
type ScheduleStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Overdue    int64 `json:"overdue"`
	Cancelled  int64 `json:"cancelled"`
}

// CreateSchedule creates a pending review schedule. When a report is
// referenced it must exist in the actor's hospital.
func (s *ScheduleService) CreateSchedule(ctx context.Context, actor identity.Actor, req CreateScheduleRequest) (*ScheduleResponse, error) {
	if req.ReportID != nil {
		report, err := s.reportRepo.FindByIDForHospital(ctx, actor.HospitalID, *req.ReportID)
		if err != nil {
			return nil, err
		}
		if report == nil {
			return nil, shared.NewDomainError("NOT_FOUND", "Referenced report not found")
		}
	}

	schedule, err := review.NewReviewSchedule(
		actor.HospitalID,
		actor.UserID,
		req.Title,
		req.Description,
		review.ReviewType(req.ReviewType),
		req.ScheduledDate,
		req.AssignedTo,
		review.Priority(req.Priority),
		req.ReportID,
		req.ReminderDays,
	)
	if err != nil {
		return nil, err
	}

	// a schedule created with a past date is overdue from the start
	schedule.ReconcileStatus(s.now())

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// GetScheduleByID gets a review schedule by ID
func (s *ScheduleService) GetScheduleByID(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ScheduleResponse, error) {
	schedule, err := s.findSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// ListSchedules lists review schedules with filtering and pagination
func (s *ScheduleService) ListSchedules(ctx context.Context, actor identity.Actor, filter ScheduleListFilter) (shared.Paginated[ScheduleResponse], error) {
	query := review.ScheduleQuery{
		Status:     review.ScheduleStatus(filter.Status),
		ReviewType: review.ReviewType(filter.ReviewType),
		AssignedTo: filter.AssignedTo,
		Priority:   review.Priority(filter.Priority),
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}

	page, err := s.scheduleRepo.FindPage(ctx, actor.HospitalID, query)
	if err != nil {
		return shared.Paginated[ScheduleResponse]{}, err
	}

	now := s.now()
	responses := make([]ScheduleResponse, len(page.Items))
	for i := range page.Items {
		schedule := &page.Items[i]
		if schedule.ReconcileStatus(now) {
			if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
				return shared.Paginated[ScheduleResponse]{}, err
			}
		}
		responses[i] = *toScheduleResponse(schedule)
	}

	return shared.Paginated[ScheduleResponse]{
		Items:      responses,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// UpdateSchedule updates a schedule's editable fields
func (s *ScheduleService) UpdateSchedule(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	schedule, err := s.findSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !schedule.CanBeEditedBy(actor) {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the creator, the assignee, or an admin can edit this schedule")
	}

	if err := schedule.UpdateDetails(
		req.Title,
		req.Description,
		review.ReviewType(req.ReviewType),
		req.ScheduledDate,
		req.AssignedTo,
		review.Priority(req.Priority),
	); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// StartSchedule moves a pending or overdue schedule to in-progress
func (s *ScheduleService) StartSchedule(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ScheduleResponse, error) {
	schedule, err := s.findSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !schedule.CanBeEditedBy(actor) {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the creator, the assignee, or an admin can start this review")
	}

	if err := schedule.Start(); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// CompleteSchedule marks a schedule as completed by the acting user
func (s *ScheduleService) CompleteSchedule(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ScheduleResponse, error) {
	schedule, err := s.findSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !schedule.CanBeCompletedBy(actor) {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the assignee or an admin can complete this review")
	}

	if err := schedule.MarkCompleted(actor.UserID); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// CancelSchedule cancels a schedule that has not finished yet
func (s *ScheduleService) CancelSchedule(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ScheduleResponse, error) {
	schedule, err := s.findSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !schedule.CanBeEditedBy(actor) {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the creator, the assignee, or an admin can cancel this review")
	}

	if err := schedule.Cancel(); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// DeleteSchedule deletes a review schedule
func (s *ScheduleService) DeleteSchedule(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	schedule, err := s.findSchedule(ctx, actor, id)
	if err != nil {
		return err
	}

	if !schedule.CanBeDeletedBy(actor) {
		return shared.NewDomainError("FORBIDDEN", "Only the creator or an admin can delete this schedule")
	}

	return s.scheduleRepo.Delete(ctx, schedule.ID)
}

// AddComment appends a comment to a schedule. Any member of the hospital
// may comment.
func (s *ScheduleService) AddComment(ctx context.Context, actor identity.Actor, id uuid.UUID, req AddCommentRequest) (*ScheduleResponse, error) {
	schedule, err := s.findSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if _, err := schedule.AddComment(actor.UserID, req.Text); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, err
	}
	return toScheduleResponse(schedule), nil
}

// GetUpcoming returns schedules due within the next days, soonest first
func (s *ScheduleService) GetUpcoming(ctx context.Context, actor identity.Actor, days int) ([]ScheduleResponse, error) {
	if days <= 0 {
		days = defaultUpcomingWindowDays
	}

	schedules, err := s.scheduleRepo.FindUpcoming(ctx, actor.HospitalID, s.now(), days)
	if err != nil {
		return nil, err
	}
	return toScheduleResponses(schedules), nil
}

// GetOverdue returns overdue schedules, reconciling pending ones whose
// date has passed
func (s *ScheduleService) GetOverdue(ctx context.Context, actor identity.Actor) ([]ScheduleResponse, error) {
	now := s.now()
	schedules, err := s.scheduleRepo.FindOverdue(ctx, actor.HospitalID, now)
	if err != nil {
		return nil, err
	}

	for i := range schedules {
		if schedules[i].ReconcileStatus(now) {
			if err := s.scheduleRepo.Save(ctx, &schedules[i]); err != nil {
				return nil, err
			}
		}
	}
	return toScheduleResponses(schedules), nil
}

// GetScheduleStats returns schedule counts per status
func (s *ScheduleService) GetScheduleStats(ctx context.Context, actor identity.Actor) (*ScheduleStats, error) {
	counts, err := s.scheduleRepo.CountByStatus(ctx, actor.HospitalID)
	if err != nil {
		return nil, err
	}

	stats := &ScheduleStats{
		Pending:    counts[review.ScheduleStatusPending],
		InProgress: counts[review.ScheduleStatusInProgress],
		Completed:  counts[review.ScheduleStatusCompleted],
		Overdue:    counts[review.ScheduleStatusOverdue],
		Cancelled:  counts[review.ScheduleStatusCancelled],
	}
	stats.Total = stats.Pending + stats.InProgress + stats.Completed + stats.Overdue + stats.Cancelled
	return stats, nil
}

// findSchedule loads a schedule in the actor's hospital and reconciles its
// status against the clock, persisting a pending to overdue flip.
func (s *ScheduleService) findSchedule(ctx context.Context, actor identity.Actor, id uuid.UUID) (*review.ReviewSchedule, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Review schedule not found")
	}
	if schedule.HospitalID != actor.HospitalID {
		return nil, shared.NewDomainError("FORBIDDEN", "Review schedule belongs to another hospital")
	}

	if schedule.ReconcileStatus(s.now()) {
		if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
			return nil, err
		}
	}
	return schedule, nil
}

func toScheduleResponse(sc *review.ReviewSchedule) *ScheduleResponse {
	comments := sc.Comments
	if comments == nil {
		comments = make([]review.Comment, 0)
	}
	reminders := sc.Reminders
	if reminders == nil {
		reminders = make([]review.Reminder, 0)
	}

	return &ScheduleResponse{
		ID:            sc.ID,
		HospitalID:    sc.HospitalID,
		ReportID:      sc.ReportID,
		Title:         sc.Title,
		Description:   sc.Description,
		ReviewType:    string(sc.ReviewType),
		ScheduledDate: sc.ScheduledDate,
		AssignedTo:    sc.AssignedTo,
		Status:        string(sc.Status),
		Priority:      string(sc.Priority),
		Comments:      comments,
		Reminders:     reminders,
		CompletedBy:   sc.CompletedBy,
		CompletedAt:   sc.CompletedAt,
		CreatedBy:     sc.CreatedBy,
		CreatedAt:     sc.CreatedAt,
		UpdatedAt:     sc.UpdatedAt,
		Version:       sc.Version,
	}
}

func toScheduleResponses(schedules []review.ReviewSchedule) []ScheduleResponse {
	responses := make([]ScheduleResponse, len(schedules))
	for i := range schedules {
		responses[i] = *toScheduleResponse(&schedules[i])
	}
	return responses
}
