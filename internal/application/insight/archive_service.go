package insight

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/shared"
)

const defaultArchiveMonths = 24

// ArchiveService performs bulk archival of old approved reports
type ArchiveService struct {
	reportRepo     finance.FinancialReportRepository
	archiveLogRepo finance.ArchiveLogRepository
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewArchiveService creates a new ArchiveService
func NewArchiveService(reportRepo finance.FinancialReportRepository, archiveLogRepo finance.ArchiveLogRepository, eventPublisher shared.EventPublisher) *ArchiveService {
	return &ArchiveService{
		reportRepo:     reportRepo,
		archiveLogRepo: archiveLogRepo,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// ArchiveOldReportsRequest represents a bulk-archive request
type ArchiveOldReportsRequest struct {
	MonthsOld int    `json:"months_old" binding:"omitempty,min=1,max=120"`
	Reason    string `json:"reason" binding:"omitempty,max=500"`
}

// ArchiveResult is the outcome of a bulk-archive run. A run that matched
// nothing is a valid result with a zero count and no log entry.
type ArchiveResult struct {
	TotalArchived   int                         `json:"total_archived"`
	CutoffDate      time.Time                   `json:"cutoff_date"`
	Reason          string                      `json:"reason,omitempty"`
	ArchivedReports []finance.ArchivedReportRef `json:"archived_reports"`
	LogID           *uuid.UUID                  `json:"log_id,omitempty"`
}

// ArchiveLogResponse represents an archive run record in API responses
type ArchiveLogResponse struct {
	ID              uuid.UUID                   `json:"id"`
	HospitalID      string                      `json:"hospital_id"`
	ArchiveType     string                      `json:"archive_type"`
	ArchivedReports []finance.ArchivedReportRef `json:"archived_reports"`
	TotalArchived   int                         `json:"total_archived"`
	CutoffDate      time.Time                   `json:"cutoff_date"`
	Reason          string                      `json:"reason"`
	ArchivedBy      uuid.UUID                   `json:"archived_by"`
	CompletedAt     *time.Time                  `json:"completed_at,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
}

// ArchiveOldReports archives every approved report created before the
// cutoff and records the run. The report flips and the log entry land in
// one transaction. When nothing matches, no log entry is written.
func (s *ArchiveService) ArchiveOldReports(ctx context.Context, actor identity.Actor, req ArchiveOldReportsRequest) (*ArchiveResult, error) {
	monthsOld := req.MonthsOld
	if monthsOld <= 0 {
		monthsOld = defaultArchiveMonths
	}
	cutoff := s.now().AddDate(0, -monthsOld, 0)

	candidates, err := s.reportRepo.FindApprovedOlderThan(ctx, actor.HospitalID, cutoff)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &ArchiveResult{
			TotalArchived:   0,
			CutoffDate:      cutoff,
			ArchivedReports: []finance.ArchivedReportRef{},
		}, nil
	}

	reports := make([]*finance.FinancialReport, 0, len(candidates))
	for i := range candidates {
		report := &candidates[i]
		if err := report.Archive(); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	log, err := finance.NewArchiveLog(actor.HospitalID, actor.UserID, finance.ArchiveTypeManual, cutoff, reports, req.Reason)
	if err != nil {
		return nil, err
	}

	if err := s.archiveLogRepo.SaveWithReportArchival(ctx, log, reports); err != nil {
		return nil, err
	}

	for _, report := range reports {
		s.publishEvents(ctx, report)
	}

	return &ArchiveResult{
		TotalArchived:   log.TotalArchived,
		CutoffDate:      cutoff,
		Reason:          log.Reason,
		ArchivedReports: log.ArchivedReports,
		LogID:           &log.ID,
	}, nil
}

func (s *ArchiveService) publishEvents(ctx context.Context, report *finance.FinancialReport) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range report.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	report.ClearDomainEvents()
}

// GetArchiveLogs returns the latest archive runs, newest first
func (s *ArchiveService) GetArchiveLogs(ctx context.Context, actor identity.Actor, limit int) ([]ArchiveLogResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	logs, err := s.archiveLogRepo.FindRecent(ctx, actor.HospitalID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]ArchiveLogResponse, len(logs))
	for i := range logs {
		responses[i] = toArchiveLogResponse(&logs[i])
	}
	return responses, nil
}

func toArchiveLogResponse(log *finance.ArchiveLog) ArchiveLogResponse {
	reports := log.ArchivedReports
	if reports == nil {
		reports = make([]finance.ArchivedReportRef, 0)
	}
	return ArchiveLogResponse{
		ID:              log.ID,
		HospitalID:      log.HospitalID,
		ArchiveType:     string(log.ArchiveType),
		ArchivedReports: reports,
		TotalArchived:   log.TotalArchived,
		CutoffDate:      log.CutoffDate,
		Reason:          log.Reason,
		ArchivedBy:      log.ArchivedBy,
		CompletedAt:     log.CompletedAt,
		CreatedAt:       log.CreatedAt,
	}
}
