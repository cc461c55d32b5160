package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/shared"
)

// ArchiveType distinguishes how an archive run was triggered
type ArchiveType string

const (
	ArchiveTypeManual    ArchiveType = "manual"
	ArchiveTypeAutomatic ArchiveType = "automatic"
	ArchiveTypeScheduled ArchiveType = "scheduled"
)

// IsValid checks if the type is a valid ArchiveType
func (t ArchiveType) IsValid() bool {
	switch t {
	case ArchiveTypeManual, ArchiveTypeAutomatic, ArchiveTypeScheduled:
		return true
	}
	return false
}

// ArchivedReportRef is a snapshot of one report caught by an archive run.
// Period and type are denormalized so the log stays readable after the
// report itself changes or disappears.
type ArchivedReportRef struct {
	ReportID   uuid.UUID  `json:"report_id"`
	Period     string     `json:"period"`
	ReportType ReportType `json:"report_type"`
	ArchivedAt time.Time  `json:"archived_at"`
}

// ArchiveLog records one bulk-archive run. A log entry is only written when
// the run actually archived at least one report.
type ArchiveLog struct {
	shared.HospitalAggregateRoot
	ArchiveType     ArchiveType         `json:"archive_type"`
	ArchivedReports []ArchivedReportRef `json:"archived_reports" gorm:"-"`
	TotalArchived   int                 `json:"total_archived"`
	CutoffDate      time.Time           `json:"cutoff_date"`
	Reason          string              `json:"reason"`
	ArchivedBy      uuid.UUID           `json:"archived_by"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
}

// DefaultArchiveReason is used when the caller supplies none
const DefaultArchiveReason = "Manual archive of old reports"

// NewArchiveLog creates a completed archive log entry for a bulk-archive run
func NewArchiveLog(
	hospitalID string,
	archivedBy uuid.UUID,
	archiveType ArchiveType,
	cutoff time.Time,
	reports []*FinancialReport,
	reason string,
) (*ArchiveLog, error) {
	if hospitalID == "" {
		return nil, shared.NewDomainError("INVALID_HOSPITAL_ID", "Hospital ID is required")
	}
	if archivedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Archiving user ID cannot be empty")
	}
	if !archiveType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ARCHIVE_TYPE", "Invalid archive type")
	}
	if len(reports) == 0 {
		return nil, shared.NewDomainError("EMPTY_ARCHIVE", "Archive log requires at least one archived report")
	}
	if reason == "" {
		reason = DefaultArchiveReason
	}
	if len(reason) > 500 {
		return nil, shared.NewDomainError("INVALID_REASON", "Archive reason cannot exceed 500 characters")
	}

	now := time.Now()
	refs := make([]ArchivedReportRef, 0, len(reports))
	for _, report := range reports {
		refs = append(refs, ArchivedReportRef{
			ReportID:   report.ID,
			Period:     report.Period,
			ReportType: report.ReportType,
			ArchivedAt: now,
		})
	}

	return &ArchiveLog{
		HospitalAggregateRoot: shared.NewHospitalAggregateRootWithCreator(hospitalID, archivedBy),
		ArchiveType:           archiveType,
		ArchivedReports:       refs,
		TotalArchived:         len(refs),
		CutoffDate:            cutoff,
		Reason:                reason,
		ArchivedBy:            archivedBy,
		CompletedAt:           &now,
	}, nil
}
