package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Report Repository
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

// =============================================================================
// Helpers
// =============================================================================

func intPtr(v int) *int { return &v }

func financeActor() identity.Actor {
	return identity.NewActor(uuid.New(), identity.RoleFinance, "hosp-001")
}

func adminActor() identity.Actor {
	return identity.NewActor(uuid.New(), identity.RoleAdmin, "hosp-001")
}

func createRequest() CreateReportRequest {
	req := CreateReportRequest{
		ReportType: "monthly",
		Year:       2024,
		Month:      intPtr(1),
		TaxRate:    decimal.NewFromFloat(0.25),
	}
	req.Revenue.PatientCare = decimal.NewFromInt(1000)
	req.Expenses.Salaries = decimal.NewFromInt(600)
	req.Assets.Current.Cash = decimal.NewFromInt(5000)
	req.Liabilities.Current.AccountsPayable = decimal.NewFromInt(2000)
	req.Capital = decimal.NewFromInt(3000)
	return req
}

func storedReport(t *testing.T, actor identity.Actor) *finance.FinancialReport {
	t.Helper()
	report, err := finance.NewFinancialReport(
		actor.HospitalID, actor.UserID, finance.ReportTypeMonthly, 2024, intPtr(1), nil,
		createRequest().toFigures(),
	)
	require.NoError(t, err)
	report.ClearDomainEvents()
	return report
}

// =============================================================================
// Tests
// =============================================================================

func TestCreateReport(t *testing.T) {
	t.Run("creates draft report", func(t *testing.T) {
		repo := new(MockReportRepository)
		service := NewReportService(repo, nil)
		actor := financeActor()

		repo.On("ExistsForPeriod", mock.Anything, "hosp-001", finance.ReportTypeMonthly, 2024, mock.Anything, mock.Anything, uuid.Nil).Return(false, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*finance.FinancialReport")).Return(nil)

		resp, err := service.CreateReport(context.Background(), actor, createRequest())
		require.NoError(t, err)

		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, "Januari 2024", resp.Period)
		assert.True(t, resp.TotalRevenue.Equal(decimal.NewFromInt(1000)))
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate period", func(t *testing.T) {
		repo := new(MockReportRepository)
		service := NewReportService(repo, nil)
		actor := financeActor()

		repo.On("ExistsForPeriod", mock.Anything, "hosp-001", finance.ReportTypeMonthly, 2024, mock.Anything, mock.Anything, uuid.Nil).Return(true, nil)

		_, err := service.CreateReport(context.Background(), actor, createRequest())
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestUpdateReport(t *testing.T) {
	t.Run("non-elevated actor cannot edit submitted report", func(t *testing.T) {
		repo := new(MockReportRepository)
		service := NewReportService(repo, nil)
		actor := financeActor()

		report := storedReport(t, actor)
		require.NoError(t, report.Submit())
		report.ClearDomainEvents()

		repo.On("FindByID", mock.Anything, report.ID).Return(report, nil)

		_, err := service.UpdateReport(context.Background(), actor, report.ID, createRequest())
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
	})

	t.Run("admin edits approved report", func(t *testing.T) {
		repo := new(MockReportRepository)
		service := NewReportService(repo, nil)
		admin := adminActor()

		report := storedReport(t, admin)
		require.NoError(t, report.Submit())
		require.NoError(t, report.Approve(admin.UserID))
		report.ClearDomainEvents()

		repo.On("FindByID", mock.Anything, report.ID).Return(report, nil)
		repo.On("ExistsForPeriod", mock.Anything, "hosp-001", finance.ReportTypeMonthly, 2024, mock.Anything, mock.Anything, report.ID).Return(false, nil)
		repo.On("Save", mock.Anything, report).Return(nil)

		resp, err := service.UpdateReport(context.Background(), admin, report.ID, createRequest())
		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockReportRepository)
		service := NewReportService(repo, nil)
		actor := financeActor()
		id := uuid.New()

		repo.On("FindByID", mock.Anything, id).Return(nil, nil)

		_, err := service.UpdateReport(context.Background(), actor, id, createRequest())
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("report of another hospital is forbidden", func(t *testing.T) {
		repo := new(MockReportRepository)
		service := NewReportService(repo, nil)

		other := identity.NewActor(uuid.New(), identity.RoleFinance, "hosp-002")
		report := storedReport(t, other)

		repo.On("FindByID", mock.Anything, report.ID).Return(report, nil)

		_, err := service.UpdateReport(context.Background(), financeActor(), report.ID, createRequest())
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "FORBIDDEN", domainErr.Code)
	})
}

func TestSubmitAndApprove(t *testing.T) {
	repo := new(MockReportRepository)
	service := NewReportService(repo, nil)
	actor := financeActor()
	admin := adminActor()

	report := storedReport(t, actor)
	repo.On("FindByID", mock.Anything, report.ID).Return(report, nil)
	repo.On("Save", mock.Anything, report).Return(nil)

	resp, err := service.SubmitReport(context.Background(), actor, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "submitted", resp.Status)

	resp, err = service.ApproveReport(context.Background(), admin, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, admin.UserID, *resp.ApprovedBy)
}

func TestApproveRejectsDraft(t *testing.T) {
	repo := new(MockReportRepository)
	service := NewReportService(repo, nil)
	admin := adminActor()

	report := storedReport(t, admin)
	repo.On("FindByID", mock.Anything, report.ID).Return(report, nil)

	_, err := service.ApproveReport(context.Background(), admin, report.ID)
	require.Error(t, err)
	assert.Equal(t, finance.ReportStatusDraft, report.Status)
	repo.AssertNotCalled(t, "Save")
}

func TestDeleteReport(t *testing.T) {
	t.Run("finance cannot delete approved report", func(t *testing.T) {
		repo := new(MockReportRepository)
		service := NewReportService(repo, nil)
		actor := financeActor()

		report := storedReport(t, actor)
		require.NoError(t, report.Submit())
		require.NoError(t, report.Approve(uuid.New()))

		repo.On("FindByID", mock.Anything, report.ID).Return(report, nil)

		err := service.DeleteReport(context.Background(), actor, report.ID)
		require.Error(t, err)
		repo.AssertNotCalled(t, "Delete")
	})

	t.Run("deletes draft", func(t *testing.T) {
		repo := new(MockReportRepository)
		service := NewReportService(repo, nil)
		actor := financeActor()

		report := storedReport(t, actor)
		repo.On("FindByID", mock.Anything, report.ID).Return(report, nil)
		repo.On("Delete", mock.Anything, report.ID).Return(nil)

		require.NoError(t, service.DeleteReport(context.Background(), actor, report.ID))
		repo.AssertExpectations(t)
	})
}

func TestDuplicateReport(t *testing.T) {
	repo := new(MockReportRepository)
	service := NewReportService(repo, nil)
	actor := financeActor()

	report := storedReport(t, actor)
	require.NoError(t, report.Submit())
	require.NoError(t, report.Approve(uuid.New()))

	repo.On("FindByID", mock.Anything, report.ID).Return(report, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*finance.FinancialReport")).Return(nil)

	resp, err := service.DuplicateReport(context.Background(), actor, report.ID)
	require.NoError(t, err)

	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, "Januari 2024 (Copy)", resp.Period)
	require.NotNil(t, resp.PreviousVersionID)
	assert.Equal(t, report.ID, *resp.PreviousVersionID)
	assert.Nil(t, resp.ApprovedBy)
}

func TestGetReportStats(t *testing.T) {
	repo := new(MockReportRepository)
	service := NewReportService(repo, nil)
	actor := financeActor()

	repo.On("CountByStatus", mock.Anything, "hosp-001").Return(map[finance.ReportStatus]int64{
		finance.ReportStatusDraft:    3,
		finance.ReportStatusApproved: 5,
	}, nil)

	stats, err := service.GetReportStats(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Draft)
	assert.Equal(t, int64(5), stats.Approved)
	assert.Equal(t, int64(8), stats.Total)
}
