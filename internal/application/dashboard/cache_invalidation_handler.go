package dashboard

import (
	"context"

	"github.com/hospfin/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CacheInvalidationHandler drops cached dashboard payloads whenever a report
// mutation event is published, so the dashboard reflects changes before the
// cache TTL runs out.
type CacheInvalidationHandler struct {
	service *DashboardService
	logger  *zap.Logger
}

// NewCacheInvalidationHandler creates a new CacheInvalidationHandler
func NewCacheInvalidationHandler(service *DashboardService, logger *zap.Logger) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{
		service: service,
		logger:  logger,
	}
}

// EventTypes returns the report lifecycle events that affect dashboard data
func (h *CacheInvalidationHandler) EventTypes() []string {
	return []string{
		"report.created",
		"report.submitted",
		"report.approved",
		"report.archived",
		"report.duplicated",
	}
}

// Handle invalidates the hospital's cached stats for the event's hospital
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.service.InvalidateStats(ctx, event.HospitalID())
	h.logger.Debug("dashboard cache invalidated",
		zap.String("event_type", event.EventType()),
		zap.String("hospital_id", event.HospitalID()),
	)
	return nil
}

// Ensure CacheInvalidationHandler implements EventHandler
var _ shared.EventHandler = (*CacheInvalidationHandler)(nil)
