package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/shared"
)

// ReportQuery narrows report listings. Zero values mean "no constraint".
type ReportQuery struct {
	ReportType ReportType
	Status     ReportStatus
	Year       int
	Search     string // matches against the period label
	Page       int
	PageSize   int
	SortBy     string
	SortDir    string
}

// FinancialReportRepository is the persistence port for financial reports.
// Save performs a compare-and-swap on the aggregate version and returns
// ErrConcurrencyConflict when the stored version has moved on.
type FinancialReportRepository interface {
	shared.HospitalRepository[FinancialReport]

	// FindPage lists non-archived reports for a hospital unless the query
	// asks for archived status explicitly.
	FindPage(ctx context.Context, hospitalID string, query ReportQuery) (shared.Paginated[FinancialReport], error)

	// FindLatestByStatuses returns the most recently created report whose
	// status is in the given set. Pass excludeID to skip one report, e.g.
	// when fetching the previous period behind the latest. uuid.Nil
	// excludes nothing.
	FindLatestByStatuses(ctx context.Context, hospitalID string, statuses []ReportStatus, excludeID uuid.UUID) (*FinancialReport, error)

	// FindByYear returns all non-archived reports for a calendar year,
	// ordered by period key ascending.
	FindByYear(ctx context.Context, hospitalID string, year int) ([]FinancialReport, error)

	// FindApprovedOlderThan returns approved reports created before the
	// cutoff, the candidate set for bulk archival.
	FindApprovedOlderThan(ctx context.Context, hospitalID string, cutoff time.Time) ([]FinancialReport, error)

	// FindApprovedInWindow returns approved reports created inside the
	// [from, to) window, ordered by creation ascending.
	FindApprovedInWindow(ctx context.Context, hospitalID string, from, to time.Time) ([]FinancialReport, error)

	// ExistsForPeriod reports whether a non-archived report already
	// occupies the (type, year, month, quarter) slot. The excluded ID
	// skips the report being updated.
	ExistsForPeriod(ctx context.Context, hospitalID string, reportType ReportType, year int, month, quarter *int, excludeID uuid.UUID) (bool, error)

	// CountByStatus returns report counts keyed by status for a hospital
	CountByStatus(ctx context.Context, hospitalID string) (map[ReportStatus]int64, error)

	// FindRecentlyUpdated returns the most recently updated reports,
	// newest first, for the activity feed.
	FindRecentlyUpdated(ctx context.Context, hospitalID string, limit int) ([]FinancialReport, error)
}

// ArchiveLogRepository persists bulk-archive run records
type ArchiveLogRepository interface {
	// SaveWithReportArchival archives the given reports and writes the log
	// entry in a single transaction. Either all reports flip to archived
	// and the log lands, or nothing changes.
	SaveWithReportArchival(ctx context.Context, log *ArchiveLog, reports []*FinancialReport) error

	// FindRecent returns the latest archive runs for a hospital
	FindRecent(ctx context.Context, hospitalID string, limit int) ([]ArchiveLog, error)
}
