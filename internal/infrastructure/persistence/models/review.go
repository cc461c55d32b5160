package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/review"
)

// ReviewScheduleModel is the persistence model for the ReviewSchedule
// aggregate root. Comments and reminders live in JSONB columns because they
// are only ever read and written through the aggregate.
type ReviewScheduleModel struct {
	HospitalAggregateModel
	ReportID      *uuid.UUID            `gorm:"type:uuid;index"`
	Title         string                `gorm:"type:varchar(200);not null"`
	Description   string                `gorm:"type:text"`
	ReviewType    review.ReviewType     `gorm:"type:varchar(20);not null;index"`
	ScheduledDate time.Time             `gorm:"not null;index"`
	AssignedTo    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Status        review.ScheduleStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Priority      review.Priority       `gorm:"type:varchar(10);not null;default:'medium'"`
	Comments      []review.Comment      `gorm:"type:jsonb;serializer:json;not null"`
	Reminders     []review.Reminder     `gorm:"type:jsonb;serializer:json;not null"`
	CompletedBy   *uuid.UUID            `gorm:"type:uuid"`
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (ReviewScheduleModel) TableName() string {
	return "review_schedules"
}

// ToDomain converts the persistence model to a domain ReviewSchedule
func (m *ReviewScheduleModel) ToDomain() *review.ReviewSchedule {
	comments := m.Comments
	if comments == nil {
		comments = make([]review.Comment, 0)
	}
	reminders := m.Reminders
	if reminders == nil {
		reminders = make([]review.Reminder, 0)
	}

	return &review.ReviewSchedule{
		HospitalAggregateRoot: m.ToDomainHospitalAggregateRoot(),
		ReportID:              m.ReportID,
		Title:                 m.Title,
		Description:           m.Description,
		ReviewType:            m.ReviewType,
		ScheduledDate:         m.ScheduledDate,
		AssignedTo:            m.AssignedTo,
		Status:                m.Status,
		Priority:              m.Priority,
		Comments:              comments,
		Reminders:             reminders,
		CompletedBy:           m.CompletedBy,
		CompletedAt:           m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain ReviewSchedule
func (m *ReviewScheduleModel) FromDomain(s *review.ReviewSchedule) {
	m.FromDomainHospitalAggregateRoot(s.HospitalAggregateRoot)
	m.ReportID = s.ReportID
	m.Title = s.Title
	m.Description = s.Description
	m.ReviewType = s.ReviewType
	m.ScheduledDate = s.ScheduledDate
	m.AssignedTo = s.AssignedTo
	m.Status = s.Status
	m.Priority = s.Priority
	m.Comments = s.Comments
	m.Reminders = s.Reminders
	m.CompletedBy = s.CompletedBy
	m.CompletedAt = s.CompletedAt
}

// ReviewScheduleModelFromDomain creates a new persistence model from a
// domain ReviewSchedule
func ReviewScheduleModelFromDomain(s *review.ReviewSchedule) *ReviewScheduleModel {
	m := &ReviewScheduleModel{}
	m.FromDomain(s)
	return m
}
