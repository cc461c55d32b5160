package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/shared"
)

// ScheduleStatus represents the lifecycle status of a review schedule
type ScheduleStatus string

const (
	ScheduleStatusPending    ScheduleStatus = "pending"
	ScheduleStatusInProgress ScheduleStatus = "in-progress"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusOverdue    ScheduleStatus = "overdue"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

// IsValid checks if the status is a valid ScheduleStatus
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleStatusPending, ScheduleStatusInProgress, ScheduleStatusCompleted,
		ScheduleStatusOverdue, ScheduleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ScheduleStatus
func (s ScheduleStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that never auto-transition again
func (s ScheduleStatus) IsTerminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled
}

// ReviewType categorizes what kind of review the schedule covers
type ReviewType string

const (
	ReviewTypeMonthly   ReviewType = "monthly"
	ReviewTypeQuarterly ReviewType = "quarterly"
	ReviewTypeAnnual    ReviewType = "annual"
	ReviewTypeAudit     ReviewType = "audit"
	ReviewTypeSpecial   ReviewType = "special"
)

// IsValid checks if the type is a valid ReviewType
func (t ReviewType) IsValid() bool {
	switch t {
	case ReviewTypeMonthly, ReviewTypeQuarterly, ReviewTypeAnnual, ReviewTypeAudit, ReviewTypeSpecial:
		return true
	}
	return false
}

// Priority indicates the urgency of a review schedule
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Comment is an append-only timestamped note on a schedule. Comments are
// never edited or removed once added.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is a notification marker relative to the scheduled date
type Reminder struct {
	DaysBefore int        `json:"days_before"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
}

// DefaultReminderDays are the reminder offsets applied when none are given
var DefaultReminderDays = []int{7, 3, 1}

// ReviewSchedule is the aggregate root for a planned financial review
type ReviewSchedule struct {
	shared.HospitalAggregateRoot
	ReportID      *uuid.UUID     `json:"report_id,omitempty"` // reviewed report, optional
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	ReviewType    ReviewType     `json:"review_type"`
	ScheduledDate time.Time      `json:"scheduled_date"`
	AssignedTo    uuid.UUID      `json:"assigned_to"`
	Status        ScheduleStatus `json:"status"`
	Priority      Priority       `json:"priority"`
	Comments      []Comment      `json:"comments" gorm:"-"`
	Reminders     []Reminder     `json:"reminders" gorm:"-"`
	CompletedBy   *uuid.UUID     `json:"completed_by,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// NewReviewSchedule creates a pending review schedule
func NewReviewSchedule(
	hospitalID string,
	createdBy uuid.UUID,
	title string,
	description string,
	reviewType ReviewType,
	scheduledDate time.Time,
	assignedTo uuid.UUID,
	priority Priority,
	reportID *uuid.UUID,
	reminderDays []int,
) (*ReviewSchedule, error) {
	if hospitalID == "" {
		return nil, shared.NewDomainError("INVALID_HOSPITAL_ID", "Hospital ID is required")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Creator user ID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Schedule title is required")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Schedule title cannot exceed 200 characters")
	}
	if len(description) > 1000 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 1000 characters")
	}
	if !reviewType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REVIEW_TYPE", "Invalid review type")
	}
	if scheduledDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Scheduled date is required")
	}
	if assignedTo == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ASSIGNEE", "Assignee is required")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", "Priority must be low, medium, high, or urgent")
	}
	if len(reminderDays) == 0 {
		reminderDays = DefaultReminderDays
	}

	reminders := make([]Reminder, 0, len(reminderDays))
	for _, days := range reminderDays {
		if days < 0 {
			return nil, shared.NewDomainError("INVALID_REMINDER", "Reminder offset cannot be negative")
		}
		reminders = append(reminders, Reminder{DaysBefore: days})
	}

	return &ReviewSchedule{
		HospitalAggregateRoot: shared.NewHospitalAggregateRootWithCreator(hospitalID, createdBy),
		ReportID:              reportID,
		Title:                 title,
		Description:           description,
		ReviewType:            reviewType,
		ScheduledDate:         scheduledDate,
		AssignedTo:            assignedTo,
		Status:                ScheduleStatusPending,
		Priority:              priority,
		Comments:              make([]Comment, 0),
		Reminders:             reminders,
	}, nil
}

// ReconcileStatus flips a pending schedule whose date has passed to overdue.
// It is idempotent and is called at every read and save entry point instead
// of running a background timer. Terminal statuses are never touched.
// Returns true when the status changed.
func (s *ReviewSchedule) ReconcileStatus(now time.Time) bool {
	if s.Status != ScheduleStatusPending {
		return false
	}
	if !s.ScheduledDate.Before(now) {
		return false
	}
	s.Status = ScheduleStatusOverdue
	s.UpdatedAt = now
	return true
}

// Start moves a pending or overdue schedule to in-progress
func (s *ReviewSchedule) Start() error {
	if s.Status != ScheduleStatusPending && s.Status != ScheduleStatusOverdue {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot start review in %s status", s.Status))
	}
	s.Status = ScheduleStatusInProgress
	s.Touch()
	return nil
}

// MarkCompleted completes the schedule, recording who and when
func (s *ReviewSchedule) MarkCompleted(completedBy uuid.UUID) error {
	if s.Status == ScheduleStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Review is already completed")
	}
	if s.Status == ScheduleStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot complete a cancelled review")
	}
	if completedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Completing user ID cannot be empty")
	}

	now := time.Now()
	s.Status = ScheduleStatusCompleted
	s.CompletedBy = &completedBy
	s.CompletedAt = &now
	s.UpdatedAt = now
	return nil
}

// Cancel cancels a schedule that has not finished yet
func (s *ReviewSchedule) Cancel() error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel review in %s status", s.Status))
	}
	s.Status = ScheduleStatusCancelled
	s.Touch()
	return nil
}

// AddComment appends a comment. The list is append-only.
func (s *ReviewSchedule) AddComment(authorID uuid.UUID, text string) (*Comment, error) {
	if authorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Comment author is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, shared.NewDomainError("INVALID_COMMENT", "Comment text is required")
	}
	if len(text) > 500 {
		return nil, shared.NewDomainError("INVALID_COMMENT", "Comment cannot exceed 500 characters")
	}

	comment := Comment{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.Comments = append(s.Comments, comment)
	s.UpdatedAt = comment.CreatedAt
	return &comment, nil
}

// UpdateDetails replaces the editable fields of a schedule. Finished
// schedules cannot be edited. Moving an overdue schedule to a future date
// sends it back to pending, same as Reschedule.
func (s *ReviewSchedule) UpdateDetails(
	title string,
	description string,
	reviewType ReviewType,
	scheduledDate time.Time,
	assignedTo uuid.UUID,
	priority Priority,
) error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot edit review in %s status", s.Status))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Schedule title is required")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Schedule title cannot exceed 200 characters")
	}
	if len(description) > 1000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 1000 characters")
	}
	if !reviewType.IsValid() {
		return shared.NewDomainError("INVALID_REVIEW_TYPE", "Invalid review type")
	}
	if scheduledDate.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Scheduled date is required")
	}
	if assignedTo == uuid.Nil {
		return shared.NewDomainError("INVALID_ASSIGNEE", "Assignee is required")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Priority must be low, medium, high, or urgent")
	}

	s.Title = title
	s.Description = description
	s.ReviewType = reviewType
	s.ScheduledDate = scheduledDate
	s.AssignedTo = assignedTo
	s.Priority = priority
	if s.Status == ScheduleStatusOverdue && scheduledDate.After(time.Now()) {
		s.Status = ScheduleStatusPending
	}
	s.Touch()
	return nil
}

// Reschedule changes the scheduled date. An overdue schedule moved to a
// future date goes back to pending.
func (s *ReviewSchedule) Reschedule(newDate time.Time) error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot reschedule review in %s status", s.Status))
	}
	if newDate.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Scheduled date is required")
	}

	s.ScheduledDate = newDate
	if s.Status == ScheduleStatusOverdue && newDate.After(time.Now()) {
		s.Status = ScheduleStatusPending
	}
	s.Touch()
	return nil
}

// isCreator reports whether the actor created this schedule
func (s *ReviewSchedule) isCreator(actor identity.Actor) bool {
	return s.CreatedBy != nil && *s.CreatedBy == actor.UserID
}

// isAssignee reports whether the actor is the schedule's assignee
func (s *ReviewSchedule) isAssignee(actor identity.Actor) bool {
	return s.AssignedTo == actor.UserID
}

// CanBeCompletedBy allows completion by the assignee or an elevated actor
func (s *ReviewSchedule) CanBeCompletedBy(actor identity.Actor) bool {
	if !actor.CanAccessHospital(s.HospitalID) {
		return false
	}
	return actor.IsElevated() || s.isAssignee(actor)
}

// CanBeEditedBy allows edits by the creator, the assignee, or an elevated actor
func (s *ReviewSchedule) CanBeEditedBy(actor identity.Actor) bool {
	if !actor.CanAccessHospital(s.HospitalID) {
		return false
	}
	return actor.IsElevated() || s.isCreator(actor) || s.isAssignee(actor)
}

// CanBeDeletedBy allows deletion by the creator or an elevated actor
func (s *ReviewSchedule) CanBeDeletedBy(actor identity.Actor) bool {
	if !actor.CanAccessHospital(s.HospitalID) {
		return false
	}
	return actor.IsElevated() || s.isCreator(actor)
}

// PendingReminders returns unsent reminders whose window around the
// scheduled date includes now
func (s *ReviewSchedule) PendingReminders(now time.Time) []Reminder {
	if s.Status.IsTerminal() {
		return nil
	}
	due := make([]Reminder, 0)
	for _, r := range s.Reminders {
		if r.SentAt != nil {
			continue
		}
		triggerAt := s.ScheduledDate.AddDate(0, 0, -r.DaysBefore)
		if !now.Before(triggerAt) {
			due = append(due, r)
		}
	}
	return due
}

// MarkReminderSent stamps the reminder with the given offset as sent
func (s *ReviewSchedule) MarkReminderSent(daysBefore int, sentAt time.Time) {
	for i := range s.Reminders {
		if s.Reminders[i].DaysBefore == daysBefore && s.Reminders[i].SentAt == nil {
			s.Reminders[i].SentAt = &sentAt
			return
		}
	}
}
