package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/review"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/hospfin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormScheduleRepository implements ScheduleRepository using GORM
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GormScheduleRepository
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// FindByID finds a schedule by its ID. A miss returns nil without an error.
func (r *GormScheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.ReviewSchedule, error) {
	var model models.ReviewScheduleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForHospital finds a schedule by ID within a hospital
func (r *GormScheduleRepository) FindByIDForHospital(ctx context.Context, hospitalID string, id uuid.UUID) (*review.ReviewSchedule, error) {
	var model models.ReviewScheduleModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND id = ?", hospitalID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all schedules matching the filter
func (r *GormScheduleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]review.ReviewSchedule, error) {
	var scheduleModels []models.ReviewScheduleModel
	query := r.db.WithContext(ctx).Model(&models.ReviewScheduleModel{})
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSchedules(scheduleModels), nil
}

// FindAllForHospital finds all schedules for a hospital
func (r *GormScheduleRepository) FindAllForHospital(ctx context.Context, hospitalID string, filter shared.Filter) ([]review.ReviewSchedule, error) {
	var scheduleModels []models.ReviewScheduleModel
	query := r.db.WithContext(ctx).Model(&models.ReviewScheduleModel{}).Where("hospital_id = ?", hospitalID)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSchedules(scheduleModels), nil
}

// FindPage lists schedules for a hospital, by scheduled date ascending unless
// the query asks otherwise
func (r *GormScheduleRepository) FindPage(ctx context.Context, hospitalID string, query review.ScheduleQuery) (shared.Paginated[review.ReviewSchedule], error) {
	base := r.db.WithContext(ctx).Model(&models.ReviewScheduleModel{}).
		Where("hospital_id = ?", hospitalID)

	if query.Status != "" {
		base = base.Where("status = ?", query.Status)
	}
	if query.ReviewType != "" {
		base = base.Where("review_type = ?", query.ReviewType)
	}
	if query.AssignedTo != uuid.Nil {
		base = base.Where("assigned_to = ?", query.AssignedTo)
	}
	if query.Priority != "" {
		base = base.Where("priority = ?", query.Priority)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[review.ReviewSchedule]{}, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	sortBy := ValidateSortField(query.SortBy, ScheduleSortFields, "scheduled_date")
	sortDir := "ASC"
	if query.SortDir != "" {
		sortDir = ValidateSortOrder(query.SortDir)
	}

	var scheduleModels []models.ReviewScheduleModel
	if err := base.
		Order(sortBy + " " + sortDir).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&scheduleModels).Error; err != nil {
		return shared.Paginated[review.ReviewSchedule]{}, err
	}

	return shared.NewPaginated(toDomainSchedules(scheduleModels), total, page, pageSize), nil
}

// FindUpcoming returns non-terminal schedules due within [now, now+days)
func (r *GormScheduleRepository) FindUpcoming(ctx context.Context, hospitalID string, now time.Time, days int) ([]review.ReviewSchedule, error) {
	until := now.AddDate(0, 0, days)

	var scheduleModels []models.ReviewScheduleModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND status IN ? AND scheduled_date >= ? AND scheduled_date < ?",
			hospitalID,
			[]review.ScheduleStatus{review.ScheduleStatusPending, review.ScheduleStatusInProgress},
			now, until).
		Order("scheduled_date ASC").
		Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSchedules(scheduleModels), nil
}

// FindOverdue returns schedules already overdue plus pending ones whose
// date has passed but have not been reconciled yet
func (r *GormScheduleRepository) FindOverdue(ctx context.Context, hospitalID string, now time.Time) ([]review.ReviewSchedule, error) {
	var scheduleModels []models.ReviewScheduleModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND (status = ? OR (status = ? AND scheduled_date < ?))",
			hospitalID, review.ScheduleStatusOverdue, review.ScheduleStatusPending, now).
		Order("scheduled_date ASC").
		Find(&scheduleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSchedules(scheduleModels), nil
}

// CountByStatus returns schedule counts keyed by status
func (r *GormScheduleRepository) CountByStatus(ctx context.Context, hospitalID string) (map[review.ScheduleStatus]int64, error) {
	type statusCount struct {
		Status review.ScheduleStatus
		Count  int64
	}

	var rows []statusCount
	if err := r.db.WithContext(ctx).Model(&models.ReviewScheduleModel{}).
		Select("status, COUNT(*) as count").
		Where("hospital_id = ?", hospitalID).
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[review.ScheduleStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Save inserts a new schedule or updates an existing one with a
// compare-and-swap on the aggregate version
func (r *GormScheduleRepository) Save(ctx context.Context, schedule *review.ReviewSchedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ReviewScheduleModel{}).
			Where("id = ?", schedule.ID).Count(&count).Error; err != nil {
			return err
		}

		model := models.ReviewScheduleModelFromDomain(schedule)
		if count == 0 {
			return tx.Create(model).Error
		}

		currentVersion := schedule.Version
		model.Version = currentVersion + 1
		model.UpdatedAt = time.Now()

		result := tx.Model(&models.ReviewScheduleModel{}).
			Where("id = ? AND version = ?", schedule.ID, currentVersion).
			Select("*").Omit("id", "created_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		schedule.Version = model.Version
		schedule.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// Delete removes a review schedule
func (r *GormScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ReviewScheduleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts review schedules
func (r *GormScheduleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ReviewScheduleModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func toDomainSchedules(scheduleModels []models.ReviewScheduleModel) []review.ReviewSchedule {
	schedules := make([]review.ReviewSchedule, len(scheduleModels))
	for i := range scheduleModels {
		schedules[i] = *scheduleModels[i].ToDomain()
	}
	return schedules
}
