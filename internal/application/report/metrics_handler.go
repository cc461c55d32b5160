package report

import (
	"context"

	"github.com/hospfin/backend/internal/domain/finance"
	"github.com/hospfin/backend/internal/domain/shared"
)

// MetricsRecorder receives report lifecycle counts. Implemented by the
// telemetry layer; a nil recorder disables recording.
type MetricsRecorder interface {
	RecordReportCreated(ctx context.Context, hospitalID, reportType string)
	RecordReportApproved(ctx context.Context, hospitalID, reportType string)
	RecordReportsArchived(ctx context.Context, hospitalID, archiveType string, count int64)
}

// MetricsHandler forwards report lifecycle events to the metrics recorder
type MetricsHandler struct {
	recorder MetricsRecorder
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(recorder MetricsRecorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// EventTypes returns the report lifecycle events that feed metrics
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		"report.created",
		"report.approved",
		"report.archived",
	}
}

// Handle records the event on the corresponding counter
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.recorder == nil {
		return nil
	}

	switch e := event.(type) {
	case *finance.ReportCreatedEvent:
		h.recorder.RecordReportCreated(ctx, e.HospitalID(), string(e.ReportType))
	case *finance.ReportApprovedEvent:
		h.recorder.RecordReportApproved(ctx, e.HospitalID(), "")
	case *finance.ReportArchivedEvent:
		h.recorder.RecordReportsArchived(ctx, e.HospitalID(), "single", 1)
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
