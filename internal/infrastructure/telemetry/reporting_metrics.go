package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ReportingMetrics tracks financial report lifecycle activity and review
// schedule health.
type ReportingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	reportCreatedTotal  *Counter
	reportApprovedTotal *Counter
	reportArchivedTotal *Counter

	// Gauge metrics (point-in-time values)
	overdueScheduleCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	scheduleProvider ScheduleMetricsProvider
}

// ScheduleMetricsProvider provides review schedule data for periodic metrics
// collection. This interface lets the telemetry layer query schedule state
// without depending on the review domain directly.
type ScheduleMetricsProvider interface {
	// GetOverdueCount returns the number of overdue review schedules for a hospital
	GetOverdueCount(ctx context.Context, hospitalID string) (int64, error)
}

// HospitalProvider provides hospital IDs for periodic metrics collection.
type HospitalProvider interface {
	GetActiveHospitalIDs(ctx context.Context) ([]string, error)
}

// ReportingMetricsConfig holds configuration for reporting metrics.
type ReportingMetricsConfig struct {
	Meter            metric.Meter
	Logger           *zap.Logger
	CollectInterval  time.Duration // Default: 5 minutes
	ScheduleProvider ScheduleMetricsProvider
}

// NewReportingMetrics creates a new ReportingMetrics instance.
func NewReportingMetrics(cfg ReportingMetricsConfig) (*ReportingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rm := &ReportingMetrics{
		meter:            cfg.Meter,
		logger:           logger,
		stopChan:         make(chan struct{}),
		scheduleProvider: cfg.ScheduleProvider,
	}

	var err error

	rm.reportCreatedTotal, err = NewCounter(
		cfg.Meter,
		"hospfin_report_created_total",
		"Total number of financial reports created",
		"{reports}",
	)
	if err != nil {
		return nil, err
	}

	rm.reportApprovedTotal, err = NewCounter(
		cfg.Meter,
		"hospfin_report_approved_total",
		"Total number of financial reports approved",
		"{reports}",
	)
	if err != nil {
		return nil, err
	}

	rm.reportArchivedTotal, err = NewCounter(
		cfg.Meter,
		"hospfin_report_archived_total",
		"Total number of financial reports archived",
		"{reports}",
	)
	if err != nil {
		return nil, err
	}

	rm.overdueScheduleCount, err = NewGauge(
		cfg.Meter,
		"hospfin_review_overdue_count",
		"Number of review schedules currently overdue",
		"{schedules}",
	)
	if err != nil {
		return nil, err
	}

	return rm, nil
}

// RecordReportCreated records a report creation event.
func (rm *ReportingMetrics) RecordReportCreated(ctx context.Context, hospitalID, reportType string) {
	rm.reportCreatedTotal.Inc(ctx,
		AttrHospitalID.String(hospitalID),
		AttrReportType.String(reportType),
	)
}

// RecordReportApproved records a report approval event.
func (rm *ReportingMetrics) RecordReportApproved(ctx context.Context, hospitalID, reportType string) {
	rm.reportApprovedTotal.Inc(ctx,
		AttrHospitalID.String(hospitalID),
		AttrReportType.String(reportType),
	)
}

// RecordReportsArchived records the number of reports archived in a run.
func (rm *ReportingMetrics) RecordReportsArchived(ctx context.Context, hospitalID, archiveType string, count int64) {
	rm.reportArchivedTotal.Add(ctx, count,
		AttrHospitalID.String(hospitalID),
		AttrArchiveType.String(archiveType),
	)
}

// RecordOverdueCount records the current overdue schedule count for a hospital.
func (rm *ReportingMetrics) RecordOverdueCount(ctx context.Context, hospitalID string, count int64) {
	rm.overdueScheduleCount.Record(ctx, count,
		AttrHospitalID.String(hospitalID),
	)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking. Use Stop() to stop collection.
func (rm *ReportingMetrics) StartPeriodicCollection(ctx context.Context, hospitalProvider HospitalProvider, interval time.Duration) {
	rm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go rm.runPeriodicCollection(ctx, hospitalProvider, interval)
	})
}

func (rm *ReportingMetrics) runPeriodicCollection(ctx context.Context, hospitalProvider HospitalProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rm.collectScheduleMetrics(ctx, hospitalProvider)

	for {
		select {
		case <-rm.stopChan:
			rm.logger.Info("Stopping periodic reporting metrics collection")
			return
		case <-ctx.Done():
			rm.logger.Info("Context cancelled, stopping periodic reporting metrics collection")
			return
		case <-ticker.C:
			rm.collectScheduleMetrics(ctx, hospitalProvider)
		}
	}
}

func (rm *ReportingMetrics) collectScheduleMetrics(ctx context.Context, hospitalProvider HospitalProvider) {
	if rm.scheduleProvider == nil {
		rm.logger.Debug("No schedule provider configured, skipping schedule metrics collection")
		return
	}

	hospitalIDs, err := hospitalProvider.GetActiveHospitalIDs(ctx)
	if err != nil {
		rm.logger.Error("Failed to get hospital IDs for metrics collection", zap.Error(err))
		return
	}

	for _, hospitalID := range hospitalIDs {
		count, err := rm.scheduleProvider.GetOverdueCount(ctx, hospitalID)
		if err != nil {
			rm.logger.Warn("Failed to get overdue count for hospital",
				zap.String("hospital_id", hospitalID),
				zap.Error(err),
			)
			continue
		}
		rm.RecordOverdueCount(ctx, hospitalID, count)
	}
}

// Stop stops the periodic collection.
func (rm *ReportingMetrics) Stop() {
	rm.stopOnce.Do(func() {
		close(rm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewReportingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
