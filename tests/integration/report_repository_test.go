// Package integration provides integration tests for the financial report
// persistence layer: optimistic locking, period uniqueness queries, and the
// transactional bulk archive.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/review"
	"github.com/hospfin/backend/internal/domain/shared"
	"github.com/hospfin/backend/internal/infrastructure/persistence"
)

const testHospitalID = "hosp-integration-001"

func testFigures() finance.ReportFigures {
	return finance.ReportFigures{
		Revenue: finance.RevenueBreakdown{
			PatientCare:       decimal.NewFromInt(5_000_000_000),
			EmergencyServices: decimal.NewFromInt(1_200_000_000),
			Pharmacy:          decimal.NewFromInt(800_000_000),
		},
		Expenses: finance.ExpenseBreakdown{
			Salaries:        decimal.NewFromInt(2_500_000_000),
			MedicalSupplies: decimal.NewFromInt(900_000_000),
			Utilities:       decimal.NewFromInt(150_000_000),
		},
		Assets: finance.Assets{
			Current: finance.CurrentAssets{
				Cash:               decimal.NewFromInt(3_000_000_000),
				AccountsReceivable: decimal.NewFromInt(700_000_000),
			},
			Fixed: finance.FixedAssets{
				Buildings: decimal.NewFromInt(20_000_000_000),
				Equipment: decimal.NewFromInt(5_000_000_000),
			},
		},
		Liabilities: finance.Liabilities{
			Current: finance.CurrentLiabilities{
				AccountsPayable: decimal.NewFromInt(400_000_000),
			},
			LongTerm: finance.LongTermLiabilities{
				LongTermDebt: decimal.NewFromInt(8_000_000_000),
			},
		},
		Capital:          decimal.NewFromInt(15_000_000_000),
		RetainedEarnings: decimal.NewFromInt(4_300_000_000),
	}
}

func newMonthlyReport(t *testing.T, year int, month int) *finance.FinancialReport {
	t.Helper()

	m := month
	report, err := finance.NewFinancialReport(
		testHospitalID, uuid.New(), finance.ReportTypeMonthly, year, &m, nil, testFigures(),
	)
	require.NoError(t, err)
	return report
}

func TestFinancialReportRepository_SaveAndFind(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	repo := persistence.NewGormFinancialReportRepository(testDB.DB)
	ctx := context.Background()

	report := newMonthlyReport(t, 2025, 1)
	require.NoError(t, repo.Save(ctx, report))

	found, err := repo.FindByIDForHospital(ctx, testHospitalID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.ReportStatusDraft, found.Status)
	assert.Equal(t, "2025-01", found.Period)
	assert.True(t, found.TotalRevenue().Equal(report.TotalRevenue()),
		"revenue should survive the JSONB round trip")
	assert.True(t, found.Tax.Amount.GreaterThan(decimal.Zero),
		"derived tax amount should be persisted")

	// Reports are invisible to other hospitals
	_, err = repo.FindByIDForHospital(ctx, "hosp-other", report.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFinancialReportRepository_OptimisticLocking(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	repo := persistence.NewGormFinancialReportRepository(testDB.DB)
	ctx := context.Background()

	report := newMonthlyReport(t, 2025, 2)
	require.NoError(t, repo.Save(ctx, report))

	// Two actors load the same version
	first, err := repo.FindByIDForHospital(ctx, testHospitalID, report.ID)
	require.NoError(t, err)
	second, err := repo.FindByIDForHospital(ctx, testHospitalID, report.ID)
	require.NoError(t, err)

	require.NoError(t, first.SetNotes("first writer"))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.SetNotes("second writer"))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	// The stale write left no trace
	current, err := repo.FindByIDForHospital(ctx, testHospitalID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", current.Notes)
}

func TestFinancialReportRepository_ExistsForPeriod(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	repo := persistence.NewGormFinancialReportRepository(testDB.DB)
	ctx := context.Background()

	report := newMonthlyReport(t, 2025, 3)
	require.NoError(t, repo.Save(ctx, report))

	m := 3
	exists, err := repo.ExistsForPeriod(ctx, testHospitalID, finance.ReportTypeMonthly, 2025, &m, nil, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	// The report itself is excluded when updating
	exists, err = repo.ExistsForPeriod(ctx, testHospitalID, finance.ReportTypeMonthly, 2025, &m, nil, report.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	other := 4
	exists, err = repo.ExistsForPeriod(ctx, testHospitalID, finance.ReportTypeMonthly, 2025, &other, nil, uuid.Nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestArchiveLogRepository_TransactionalBulkArchive(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	reportRepo := persistence.NewGormFinancialReportRepository(testDB.DB)
	archiveRepo := persistence.NewGormArchiveLogRepository(testDB.DB)
	ctx := context.Background()

	actor := uuid.New()
	reports := make([]*finance.FinancialReport, 0, 2)
	for month := 5; month <= 6; month++ {
		report := newMonthlyReport(t, 2023, month)
		require.NoError(t, report.Submit())
		require.NoError(t, report.Approve(actor))
		require.NoError(t, reportRepo.Save(ctx, report))
		reports = append(reports, report)
	}

	cutoff := time.Now().UTC()
	logEntry, err := finance.NewArchiveLog(testHospitalID, actor, finance.ArchiveTypeManual, cutoff, reports, "year-end cleanup")
	require.NoError(t, err)

	require.NoError(t, archiveRepo.SaveWithReportArchival(ctx, logEntry, reports))

	for _, r := range reports {
		stored, err := reportRepo.FindByIDForHospital(ctx, testHospitalID, r.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.ReportStatusArchived, stored.Status)
	}

	logs, err := archiveRepo.FindRecent(ctx, testHospitalID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, 2, logs[0].TotalArchived)
}

func TestScheduleRepository_FindOverdue(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	repo := persistence.NewGormScheduleRepository(testDB.DB)
	ctx := context.Background()

	hospitalID := "hosp-overdue-001"
	past := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(72 * time.Hour)

	overdueSchedule, err := review.NewReviewSchedule(
		hospitalID, uuid.New(), "January close review", "",
		review.ReviewTypeMonthly, past, uuid.New(), review.PriorityHigh, nil, nil,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, overdueSchedule))

	upcomingSchedule, err := review.NewReviewSchedule(
		hospitalID, uuid.New(), "Quarterly audit prep", "",
		review.ReviewTypeAudit, future, uuid.New(), review.PriorityMedium, nil, nil,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, upcomingSchedule))

	overdue, err := repo.FindOverdue(ctx, hospitalID, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, overdueSchedule.ID, overdue[0].ID)
}
