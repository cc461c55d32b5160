package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/shared"
)

// ScheduleQuery narrows schedule listings. Zero values mean "no constraint".
type ScheduleQuery struct {
	Status     ScheduleStatus
	ReviewType ReviewType
	AssignedTo uuid.UUID
	Priority   Priority
	SortBy     string
	SortDir    string
	Page       int
	PageSize   int
}

// ScheduleRepository is the persistence port for review schedules
type ScheduleRepository interface {
	shared.HospitalRepository[ReviewSchedule]

	// FindPage lists schedules for a hospital, ordered by scheduled date
	// ascending unless the query asks otherwise.
	FindPage(ctx context.Context, hospitalID string, query ScheduleQuery) (shared.Paginated[ReviewSchedule], error)

	// FindUpcoming returns non-terminal schedules due within the window
	// [now, now+days), soonest first.
	FindUpcoming(ctx context.Context, hospitalID string, now time.Time, days int) ([]ReviewSchedule, error)

	// FindOverdue returns schedules that are overdue, or still pending
	// with a scheduled date in the past.
	FindOverdue(ctx context.Context, hospitalID string, now time.Time) ([]ReviewSchedule, error)

	// CountByStatus returns schedule counts keyed by status
	CountByStatus(ctx context.Context, hospitalID string) (map[ScheduleStatus]int64, error)
}
