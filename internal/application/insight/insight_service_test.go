package insight

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/analysis"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mocks
// =============================================================================

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinancialReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FinancialReport), args.Error(1)
}

func (m *MockReportRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.FinancialReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.FinancialReport), args.Error(1)
}

func (m *MockReportRepository) Save(ctx context.Context, report *finance.FinancialReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReportRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportRepository) FindByIDForHospital(ctx context.Context, hospitalID string, id uuid.UUID) (*finance.FinancialReport, error) {
	args := m.Called(ctx, hospitalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FinancialReport), args.Error(1)
}

func (m *MockReportRepository) FindAllForHospital(ctx context.Context, hospitalID string, filter shared.Filter) ([]finance.FinancialReport, error) {
	args := m.Called(ctx, hospitalID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.FinancialReport), args.Error(1)
}

func (m *MockReportRepository) FindPage(ctx context.Context, hospitalID string, query finance.ReportQuery) (shared.Paginated[finance.FinancialReport], error) {
	args := m.Called(ctx, hospitalID, query)
	return args.Get(0).(shared.Paginated[finance.FinancialReport]), args.Error(1)
}

func (m *MockReportRepository) FindLatestByStatuses(ctx context.Context, hospitalID string, statuses []finance.ReportStatus, excludeID uuid.UUID) (*finance.FinancialReport, error) {
	args := m.Called(ctx, hospitalID, statuses, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FinancialReport), args.Error(1)
}

func (m *MockReportRepository) FindByYear(ctx context.Context, hospitalID string, year int) ([]finance.FinancialReport, error) {
	args := m.Called(ctx, hospitalID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.FinancialReport), args.Error(1)
}

func (m *MockReportRepository) FindApprovedOlderThan(ctx context.Context, hospitalID string, cutoff time.Time) ([]finance.FinancialReport, error) {
	args := m.Called(ctx, hospitalID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.FinancialReport), args.Error(1)
}

func (m *MockReportRepository) FindApprovedInWindow(ctx context.Context, hospitalID string, from, to time.Time) ([]finance.FinancialReport, error) {
	args := m.Called(ctx, hospitalID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.FinancialReport), args.Error(1)
}

func (m *MockReportRepository) ExistsForPeriod(ctx context.Context, hospitalID string, reportType finance.ReportType, year int, month, quarter *int, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, hospitalID, reportType, year, month, quarter, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReportRepository) CountByStatus(ctx context.Context, hospitalID string) (map[finance.ReportStatus]int64, error) {
	args := m.Called(ctx, hospitalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[finance.ReportStatus]int64), args.Error(1)
}

func (m *MockReportRepository) FindRecentlyUpdated(ctx context.Context, hospitalID string, limit int) ([]finance.FinancialReport, error) {
	args := m.Called(ctx, hospitalID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.FinancialReport), args.Error(1)
}

type MockArchiveLogRepository struct {
	mock.Mock
}

func (m *MockArchiveLogRepository) SaveWithReportArchival(ctx context.Context, log *finance.ArchiveLog, reports []*finance.FinancialReport) error {
	args := m.Called(ctx, log, reports)
	return args.Error(0)
}

func (m *MockArchiveLogRepository) FindRecent(ctx context.Context, hospitalID string, limit int) ([]finance.ArchiveLog, error) {
	args := m.Called(ctx, hospitalID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.ArchiveLog), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Save(ctx context.Context, record *analysis.FinancialAnalysis) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAnalysisRepository) FindRecent(ctx context.Context, hospitalID string, limit int) ([]analysis.FinancialAnalysis, error) {
	args := m.Called(ctx, hospitalID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analysis.FinancialAnalysis), args.Error(1)
}

// =============================================================================
// Helpers
// =============================================================================

const hospitalID = "hosp-001"

var fixedNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func adminActor() identity.Actor {
	return identity.NewActor(uuid.New(), identity.RoleAdmin, hospitalID)
}

func approvedReport(t *testing.T, month int, revenue int64) finance.FinancialReport {
	t.Helper()
	report, err := finance.NewFinancialReport(
		hospitalID, uuid.New(), finance.ReportTypeMonthly, 2026, &month, nil,
		finance.ReportFigures{
			Revenue:  finance.RevenueBreakdown{PatientCare: decimal.NewFromInt(revenue)},
			Expenses: finance.ExpenseBreakdown{Salaries: decimal.NewFromInt(revenue / 2)},
			TaxRate:  decimal.NewFromFloat(0.25),
		},
	)
	require.NoError(t, err)
	require.NoError(t, report.Submit())
	require.NoError(t, report.Approve(uuid.New()))
	report.ClearDomainEvents()
	return *report
}

// =============================================================================
// Archive tests
// =============================================================================

func TestArchiveOldReports(t *testing.T) {
	t.Run("archives matching reports atomically", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		archiveLogRepo := new(MockArchiveLogRepository)
		publisher := new(MockEventPublisher)
		service := NewArchiveService(reportRepo, archiveLogRepo, publisher)
		service.now = func() time.Time { return fixedNow }

		candidates := []finance.FinancialReport{
			approvedReport(t, 1, 1_000_000),
			approvedReport(t, 2, 1_200_000),
		}
		// Default cutoff is two years back.
		cutoff := fixedNow.AddDate(0, -24, 0)
		reportRepo.On("FindApprovedOlderThan", mock.Anything, hospitalID, cutoff).Return(candidates, nil)
		archiveLogRepo.On("SaveWithReportArchival",
			mock.Anything,
			mock.AnythingOfType("*finance.ArchiveLog"),
			mock.AnythingOfType("[]*finance.FinancialReport"),
		).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := service.ArchiveOldReports(context.Background(), adminActor(), ArchiveOldReportsRequest{})
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalArchived)
		assert.Equal(t, cutoff, result.CutoffDate)
		assert.Equal(t, "Manual archive of old reports", result.Reason)
		require.NotNil(t, result.LogID)
		require.Len(t, result.ArchivedReports, 2)
		assert.Equal(t, "Januari 2026", result.ArchivedReports[0].Period)

		savedReports := archiveLogRepo.Calls[0].Arguments.Get(2).([]*finance.FinancialReport)
		for _, r := range savedReports {
			assert.Equal(t, finance.ReportStatusArchived, r.Status)
			assert.Empty(t, r.GetDomainEvents())
		}

		publisher.AssertNumberOfCalls(t, "Publish", 2)
		events := publisher.Calls[0].Arguments.Get(1).([]shared.DomainEvent)
		require.Len(t, events, 1)
		assert.IsType(t, &finance.ReportArchivedEvent{}, events[0])
	})

	t.Run("no match writes no log", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		archiveLogRepo := new(MockArchiveLogRepository)
		service := NewArchiveService(reportRepo, archiveLogRepo, nil)
		service.now = func() time.Time { return fixedNow }

		reportRepo.On("FindApprovedOlderThan", mock.Anything, hospitalID, mock.AnythingOfType("time.Time")).
			Return([]finance.FinancialReport{}, nil)

		result, err := service.ArchiveOldReports(context.Background(), adminActor(), ArchiveOldReportsRequest{MonthsOld: 24})
		require.NoError(t, err)

		assert.Zero(t, result.TotalArchived)
		assert.Nil(t, result.LogID)
		assert.Empty(t, result.ArchivedReports)
		archiveLogRepo.AssertNotCalled(t, "SaveWithReportArchival", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("custom cutoff and reason", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		archiveLogRepo := new(MockArchiveLogRepository)
		service := NewArchiveService(reportRepo, archiveLogRepo, nil)
		service.now = func() time.Time { return fixedNow }

		cutoff := fixedNow.AddDate(0, -36, 0)
		reportRepo.On("FindApprovedOlderThan", mock.Anything, hospitalID, cutoff).
			Return([]finance.FinancialReport{approvedReport(t, 3, 900_000)}, nil)
		archiveLogRepo.On("SaveWithReportArchival", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := service.ArchiveOldReports(context.Background(), adminActor(), ArchiveOldReportsRequest{
			MonthsOld: 36,
			Reason:    "Year-end cleanup",
		})
		require.NoError(t, err)
		assert.Equal(t, "Year-end cleanup", result.Reason)
	})
}

func TestGetArchiveLogs(t *testing.T) {
	reportRepo := new(MockReportRepository)
	archiveLogRepo := new(MockArchiveLogRepository)
	service := NewArchiveService(reportRepo, archiveLogRepo, nil)

	report := approvedReport(t, 1, 800_000)
	log, err := finance.NewArchiveLog(hospitalID, uuid.New(), finance.ArchiveTypeManual, fixedNow, []*finance.FinancialReport{&report}, "")
	require.NoError(t, err)

	archiveLogRepo.On("FindRecent", mock.Anything, hospitalID, 10).Return([]finance.ArchiveLog{*log}, nil)

	logs, err := service.GetArchiveLogs(context.Background(), adminActor(), 0)
	require.NoError(t, err)

	require.Len(t, logs, 1)
	assert.Equal(t, "manual", logs[0].ArchiveType)
	assert.Equal(t, 1, logs[0].TotalArchived)
}

// =============================================================================
// Analysis tests
// =============================================================================

func TestGenerateAnalysis(t *testing.T) {
	t.Run("stores analysis over window reports", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		analysisRepo := new(MockAnalysisRepository)
		service := NewAnalysisService(reportRepo, analysisRepo)
		service.now = func() time.Time { return fixedNow }

		// Default window looks back one year, typed performance.
		start := fixedNow.AddDate(0, -12, 0)
		reports := []finance.FinancialReport{
			approvedReport(t, 1, 1_000_000),
			approvedReport(t, 2, 1_200_000),
		}
		reportRepo.On("FindApprovedInWindow", mock.Anything, hospitalID, start, fixedNow).Return(reports, nil)
		analysisRepo.On("Save", mock.Anything, mock.AnythingOfType("*analysis.FinancialAnalysis")).Return(nil)

		actor := adminActor()
		resp, err := service.GenerateAnalysis(context.Background(), actor, GenerateAnalysisRequest{})
		require.NoError(t, err)

		assert.Equal(t, "performance", resp.AnalysisType)
		assert.Equal(t, start, resp.Window.StartDate)
		assert.Equal(t, fixedNow, resp.Window.EndDate)
		require.Len(t, resp.ReportIDs, 2)
		assert.InDelta(t, 20.0, resp.Metrics.RevenueGrowth.GrowthRate, 0.001)
		assert.Equal(t, actor.UserID, resp.GeneratedBy)
		assert.NotEmpty(t, resp.Insights)
	})

	t.Run("honors requested analysis type", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		analysisRepo := new(MockAnalysisRepository)
		service := NewAnalysisService(reportRepo, analysisRepo)
		service.now = func() time.Time { return fixedNow }

		start := fixedNow.AddDate(0, -6, 0)
		reports := []finance.FinancialReport{
			approvedReport(t, 1, 1_000_000),
			approvedReport(t, 2, 1_200_000),
		}
		reportRepo.On("FindApprovedInWindow", mock.Anything, hospitalID, start, fixedNow).Return(reports, nil)
		analysisRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := service.GenerateAnalysis(context.Background(), adminActor(), GenerateAnalysisRequest{
			AnalysisType: "trend",
			PeriodMonths: 6,
		})
		require.NoError(t, err)
		assert.Equal(t, "trend", resp.AnalysisType)
	})

	t.Run("rejects unknown analysis type", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		analysisRepo := new(MockAnalysisRepository)
		service := NewAnalysisService(reportRepo, analysisRepo)
		service.now = func() time.Time { return fixedNow }

		_, err := service.GenerateAnalysis(context.Background(), adminActor(), GenerateAnalysisRequest{
			AnalysisType: "benchmark",
		})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_ANALYSIS_TYPE", domainErr.Code)
		reportRepo.AssertNotCalled(t, "FindApprovedInWindow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fewer than two reports is insufficient data", func(t *testing.T) {
		reportRepo := new(MockReportRepository)
		analysisRepo := new(MockAnalysisRepository)
		service := NewAnalysisService(reportRepo, analysisRepo)
		service.now = func() time.Time { return fixedNow }

		reportRepo.On("FindApprovedInWindow", mock.Anything, hospitalID, mock.Anything, mock.Anything).
			Return([]finance.FinancialReport{approvedReport(t, 1, 1_000_000)}, nil)

		_, err := service.GenerateAnalysis(context.Background(), adminActor(), GenerateAnalysisRequest{})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_DATA", domainErr.Code)
		analysisRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestGetAnalyses(t *testing.T) {
	reportRepo := new(MockReportRepository)
	analysisRepo := new(MockAnalysisRepository)
	service := NewAnalysisService(reportRepo, analysisRepo)

	record, err := analysis.NewFinancialAnalysis(
		hospitalID, uuid.New(), analysis.AnalysisTypeTrend,
		analysis.AnalysisWindow{StartDate: fixedNow.AddDate(0, -6, 0), EndDate: fixedNow},
		[]uuid.UUID{uuid.New(), uuid.New()},
		analysis.Metrics{}, nil, nil, nil,
	)
	require.NoError(t, err)

	analysisRepo.On("FindRecent", mock.Anything, hospitalID, 5).Return([]analysis.FinancialAnalysis{*record}, nil)

	records, err := service.GetAnalyses(context.Background(), adminActor(), 5)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "trend", records[0].AnalysisType)
	require.Len(t, records[0].ReportIDs, 2)
}
