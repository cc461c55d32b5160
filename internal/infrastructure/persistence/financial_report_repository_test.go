package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockReportRepository creates a GormFinancialReportRepository with a
// mocked SQL connection
func newMockReportRepository(t *testing.T) (*GormFinancialReportRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormFinancialReportRepository(gormDB), mock, mockDB
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func reportColumns() []string {
	return []string{
		"id", "created_at", "updated_at", "version", "hospital_id", "created_by",
		"report_type", "period", "year", "month", "quarter",
		"revenue", "expenses", "assets", "liabilities", "equity",
		"tax_income", "tax_rate", "tax_amount", "tax_deductions", "tax_net_taxable",
		"status", "notes", "approved_by", "approved_at", "previous_version_id",
	}
}

func reportRow(t *testing.T, id uuid.UUID, hospitalID string, status finance.ReportStatus) []driverValue {
	now := time.Now()
	month := 3
	return []driverValue{
		id, now, now, 1, hospitalID, nil,
		"monthly", "Maret 2026", 2026, month, nil,
		mustJSON(t, finance.RevenueBreakdown{PatientCare: decimal.NewFromInt(1000)}),
		mustJSON(t, finance.ExpenseBreakdown{Salaries: decimal.NewFromInt(400)}),
		mustJSON(t, finance.Assets{}),
		mustJSON(t, finance.Liabilities{}),
		mustJSON(t, finance.Equity{}),
		decimal.NewFromInt(600), decimal.NewFromFloat(0.25), decimal.NewFromInt(150),
		decimal.Zero, decimal.NewFromInt(600),
		string(status), "", nil, nil, nil,
	}
}

type driverValue = driver.Value

func TestGormFinancialReportRepository_FindByIDForHospital(t *testing.T) {
	t.Run("finds report in hospital", func(t *testing.T) {
		repo, mock, mockDB := newMockReportRepository(t)
		defer mockDB.Close()

		reportID := uuid.New()
		rows := sqlmock.NewRows(reportColumns()).
			AddRow(reportRow(t, reportID, "hosp-001", finance.ReportStatusDraft)...)

		mock.ExpectQuery(`SELECT \* FROM "financial_reports" WHERE hospital_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("hosp-001", reportID, 1).
			WillReturnRows(rows)

		report, err := repo.FindByIDForHospital(context.Background(), "hosp-001", reportID)

		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, reportID, report.ID)
		assert.Equal(t, "Maret 2026", report.Period)
		assert.True(t, report.Revenue.PatientCare.Equal(decimal.NewFromInt(1000)))
		assert.True(t, report.Tax.Amount.Equal(decimal.NewFromInt(150)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss returns nil without error", func(t *testing.T) {
		repo, mock, mockDB := newMockReportRepository(t)
		defer mockDB.Close()

		reportID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "financial_reports" WHERE hospital_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("hosp-001", reportID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		report, err := repo.FindByIDForHospital(context.Background(), "hosp-001", reportID)

		assert.NoError(t, err)
		assert.Nil(t, report)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormFinancialReportRepository_FindLatestByStatuses(t *testing.T) {
	t.Run("excludes given report", func(t *testing.T) {
		repo, mock, mockDB := newMockReportRepository(t)
		defer mockDB.Close()

		excludeID := uuid.New()
		latestID := uuid.New()
		rows := sqlmock.NewRows(reportColumns()).
			AddRow(reportRow(t, latestID, "hosp-001", finance.ReportStatusApproved)...)

		mock.ExpectQuery(`SELECT \* FROM "financial_reports" WHERE .*status IN \(\$2,\$3\).*id <> \$4 ORDER BY created_at DESC.* LIMIT .*`).
			WithArgs("hosp-001", "approved", "submitted", excludeID, 1).
			WillReturnRows(rows)

		report, err := repo.FindLatestByStatuses(context.Background(), "hosp-001",
			[]finance.ReportStatus{finance.ReportStatusApproved, finance.ReportStatusSubmitted}, excludeID)

		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, latestID, report.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormFinancialReportRepository_ExistsForPeriod(t *testing.T) {
	t.Run("counts non-archived reports in slot", func(t *testing.T) {
		repo, mock, mockDB := newMockReportRepository(t)
		defer mockDB.Close()

		month := 3
		mock.ExpectQuery(`SELECT count\(\*\) FROM "financial_reports" WHERE .*`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsForPeriod(context.Background(), "hosp-001",
			finance.ReportTypeMonthly, 2026, &month, nil, uuid.Nil)

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormFinancialReportRepository_CountByStatus(t *testing.T) {
	repo, mock, mockDB := newMockReportRepository(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("draft", 3).
		AddRow("approved", 5)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) as count FROM "financial_reports" WHERE hospital_id = \$1 GROUP BY .*`).
		WithArgs("hosp-001").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "hosp-001")

	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[finance.ReportStatusDraft])
	assert.Equal(t, int64(5), counts[finance.ReportStatusApproved])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFinancialReportRepository_Delete(t *testing.T) {
	t.Run("deletes existing report", func(t *testing.T) {
		repo, mock, mockDB := newMockReportRepository(t)
		defer mockDB.Close()

		reportID := uuid.New()
		mock.ExpectExec(`DELETE FROM "financial_reports" WHERE id = \$1`).
			WithArgs(reportID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), reportID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing report is not found", func(t *testing.T) {
		repo, mock, mockDB := newMockReportRepository(t)
		defer mockDB.Close()

		reportID := uuid.New()
		mock.ExpectExec(`DELETE FROM "financial_reports" WHERE id = \$1`).
			WithArgs(reportID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), reportID)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
