package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/hospfin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// ReportSortFields contains allowed sort fields for financial reports
var ReportSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"period":     true,
	"year":       true,
	"status":     true,
}

// GormFinancialReportRepository implements FinancialReportRepository using GORM
type GormFinancialReportRepository struct {
	db *gorm.DB
}

// NewGormFinancialReportRepository creates a new GormFinancialReportRepository
func NewGormFinancialReportRepository(db *gorm.DB) *GormFinancialReportRepository {
	return &GormFinancialReportRepository{db: db}
}

// FindByID finds a financial report by its ID. A miss returns nil without
// an error.
func (r *GormFinancialReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinancialReport, error) {
	var model models.FinancialReportModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForHospital finds a report by ID within a hospital
func (r *GormFinancialReportRepository) FindByIDForHospital(ctx context.Context, hospitalID string, id uuid.UUID) (*finance.FinancialReport, error) {
	var model models.FinancialReportModel
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

// FindAll finds all financial reports matching the filter
func (r *GormFinancialReportRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.FinancialReport, error) {
	var reportModels []models.FinancialReportModel
	query := applyBaseFilter(r.db.WithContext(ctx).Model(&models.FinancialReportModel{}), filter)

	if err := query.Find(&reportModels).Error; err != nil {
		return nil, err
	}
	return toDomainReports(reportModels), nil
}

// FindAllForHospital finds all reports for a hospital
func (r *GormFinancialReportRepository) FindAllForHospital(ctx context.Context, hospitalID string, filter shared.Filter) ([]finance.FinancialReport, error) {
	var reportModels []models.FinancialReportModel
	query := applyBaseFilter(
		r.db.WithContext(ctx).Model(&models.FinancialReportModel{}).Where("hospital_id = ?", hospitalID),
		filter,
	)

	if err := query.Find(&reportModels).Error; err != nil {
		return nil, err
	}
	return toDomainReports(reportModels), nil
}

// FindPage lists reports for a hospital with filtering, search, sorting,
// and pagination. Archived reports are hidden unless asked for explicitly.
func (r *GormFinancialReportRepository) FindPage(ctx context.Context, hospitalID string, query finance.ReportQuery) (shared.Paginated[finance.FinancialReport], error) {
	base := r.db.WithContext(ctx).Model(&models.FinancialReportModel{}).
		Where("hospital_id = ?", hospitalID)

	if query.Status != "" {
		base = base.Where("status = ?", query.Status)
	} else {
		base = base.Where("status <> ?", finance.ReportStatusArchived)
	}
	if query.ReportType != "" {
		base = base.Where("report_type = ?", query.ReportType)
	}
	if query.Year != 0 {
		base = base.Where("year = ?", query.Year)
	}
	if query.Search != "" {
		base = base.Where("period ILIKE ?", "%"+query.Search+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[finance.FinancialReport]{}, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	sortBy := ValidateSortField(query.SortBy, ReportSortFields, "created_at")
	sortDir := ValidateSortOrder(query.SortDir)

	var reportModels []models.FinancialReportModel
	if err := base.
		Order(fmt.Sprintf("%s %s", sortBy, sortDir)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reportModels).Error; err != nil {
		return shared.Paginated[finance.FinancialReport]{}, err
	}

	return shared.NewPaginated(toDomainReports(reportModels), total, page, pageSize), nil
}

// FindLatestByStatuses returns the most recently created report in the
// status set, optionally skipping one report.
func (r *GormFinancialReportRepository) FindLatestByStatuses(ctx context.Context, hospitalID string, statuses []finance.ReportStatus, excludeID uuid.UUID) (*finance.FinancialReport, error) {
	query := r.db.WithContext(ctx).
		Where("hospital_id = ? AND status IN ?", hospitalID, statuses)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var model models.FinancialReportModel
	if err := query.Order("created_at DESC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByYear returns non-archived reports of a calendar year ordered by
// period key ascending
func (r *GormFinancialReportRepository) FindByYear(ctx context.Context, hospitalID string, year int) ([]finance.FinancialReport, error) {
	var reportModels []models.FinancialReportModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND year = ? AND status <> ?", hospitalID, year, finance.ReportStatusArchived).
		Order("year ASC, quarter ASC NULLS FIRST, month ASC NULLS FIRST").
		Find(&reportModels).Error; err != nil {
		return nil, err
	}
	return toDomainReports(reportModels), nil
}

// FindApprovedOlderThan returns approved reports created before the cutoff
func (r *GormFinancialReportRepository) FindApprovedOlderThan(ctx context.Context, hospitalID string, cutoff time.Time) ([]finance.FinancialReport, error) {
	var reportModels []models.FinancialReportModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND status = ? AND created_at < ?", hospitalID, finance.ReportStatusApproved, cutoff).
		Order("created_at ASC").
		Find(&reportModels).Error; err != nil {
		return nil, err
	}
	return toDomainReports(reportModels), nil
}

// FindApprovedInWindow returns approved reports created inside [from, to)
func (r *GormFinancialReportRepository) FindApprovedInWindow(ctx context.Context, hospitalID string, from, to time.Time) ([]finance.FinancialReport, error) {
	var reportModels []models.FinancialReportModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			hospitalID, finance.ReportStatusApproved, from, to).
		Order("created_at ASC").
		Find(&reportModels).Error; err != nil {
		return nil, err
	}
	return toDomainReports(reportModels), nil
}

// ExistsForPeriod reports whether a non-archived report occupies the period
// slot, optionally excluding the report being updated
func (r *GormFinancialReportRepository) ExistsForPeriod(ctx context.Context, hospitalID string, reportType finance.ReportType, year int, month, quarter *int, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.FinancialReportModel{}).
		Where("hospital_id = ? AND report_type = ? AND year = ? AND status <> ?",
			hospitalID, reportType, year, finance.ReportStatusArchived)

	if month != nil {
		query = query.Where("month = ?", *month)
	} else {
		query = query.Where("month IS NULL")
	}
	if quarter != nil {
		query = query.Where("quarter = ?", *quarter)
	} else {
		query = query.Where("quarter IS NULL")
	}
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByStatus returns report counts keyed by status for a hospital
func (r *GormFinancialReportRepository) CountByStatus(ctx context.Context, hospitalID string) (map[finance.ReportStatus]int64, error) {
	type statusCount struct {
		Status finance.ReportStatus
		Count  int64
	}

	var rows []statusCount
	if err := r.db.WithContext(ctx).Model(&models.FinancialReportModel{}).
		Select("status, COUNT(*) as count").
		Where("hospital_id = ?", hospitalID).
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[finance.ReportStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// FindRecentlyUpdated returns the most recently updated reports, newest first
func (r *GormFinancialReportRepository) FindRecentlyUpdated(ctx context.Context, hospitalID string, limit int) ([]finance.FinancialReport, error) {
	var reportModels []models.FinancialReportModel
	if err := r.db.WithContext(ctx).
		Where("hospital_id = ?", hospitalID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&reportModels).Error; err != nil {
		return nil, err
	}
	return toDomainReports(reportModels), nil
}

// Save inserts a new report or updates an existing one with a
// compare-and-swap on the aggregate version. A stale version surfaces as a
// concurrency conflict.
func (r *GormFinancialReportRepository) Save(ctx context.Context, report *finance.FinancialReport) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.FinancialReportModel{}).
			Where("id = ?", report.ID).Count(&count).Error; err != nil {
			return err
		}

		model := models.FinancialReportModelFromDomain(report)
		if count == 0 {
			return tx.Create(model).Error
		}

		currentVersion := report.Version
		model.Version = currentVersion + 1
		model.UpdatedAt = time.Now()

		result := tx.Model(&models.FinancialReportModel{}).
			Where("id = ? AND version = ?", report.ID, currentVersion).
			Select("*").Omit("id", "created_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		report.Version = model.Version
		report.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// Delete removes a financial report
func (r *GormFinancialReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FinancialReportModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts financial reports matching the filter
func (r *GormFinancialReportRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.FinancialReportModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func toDomainReports(reportModels []models.FinancialReportModel) []finance.FinancialReport {
	reports := make([]finance.FinancialReport, len(reportModels))
	for i := range reportModels {
		reports[i] = *reportModels[i].ToDomain()
	}
	return reports
}

func applyBaseFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		query = query.Order(fmt.Sprintf("%s %s",
			ValidateSortField(filter.OrderBy, ReportSortFields, "created_at"),
			ValidateSortOrder(filter.OrderDir)))
	}
	return query
}
