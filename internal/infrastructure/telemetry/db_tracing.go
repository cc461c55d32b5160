package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracing instruments GORM with query spans, slow-query flagging, and
// error marking. SQL parameter values are never attached to spans.
type DBTracing struct {
	slowQueryThreshold time.Duration
	logger             *zap.Logger
}

const defaultSlowQueryThreshold = 200 * time.Millisecond

// NewDBTracing creates a DBTracing instrumenter. A non-positive threshold
// falls back to 200ms.
func NewDBTracing(slowQueryThreshold time.Duration, logger *zap.Logger) *DBTracing {
	if slowQueryThreshold <= 0 {
		slowQueryThreshold = defaultSlowQueryThreshold
	}
	return &DBTracing{
		slowQueryThreshold: slowQueryThreshold,
		logger:             logger,
	}
}

// Register installs the otelgorm plugin and the timing callbacks on the
// given GORM instance.
func (t *DBTracing) Register(db *gorm.DB) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName("postgresql"),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}

	if err := t.registerTimingCallbacks(db); err != nil {
		return err
	}

	t.logger.Info("Database query tracing enabled",
		zap.Duration("slow_query_threshold", t.slowQueryThreshold),
	)
	return nil
}

type dbTracingContextKey string

const queryStartKey dbTracingContextKey = "query_start_time"

func (t *DBTracing) registerTimingCallbacks(db *gorm.DB) error {
	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("hospfin_timing:before_create", before); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("hospfin_timing:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("hospfin_timing:before_update", before); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("hospfin_timing:before_delete", before); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("hospfin_timing:before_row", before); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("hospfin_timing:before_raw", before); err != nil {
		return err
	}

	if err := db.Callback().Create().After("gorm:create").Register("hospfin_timing:after_create", t.afterQuery); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("hospfin_timing:after_query", t.afterQuery); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("hospfin_timing:after_update", t.afterQuery); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("hospfin_timing:after_delete", t.afterQuery); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register("hospfin_timing:after_row", t.afterQuery); err != nil {
		return err
	}
	if err := db.Callback().Raw().After("gorm:raw").Register("hospfin_timing:after_raw", t.afterQuery); err != nil {
		return err
	}
	return nil
}

// afterQuery annotates the active span with row counts and table names,
// marks errors, and flags queries over the slow threshold.
func (t *DBTracing) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// A record miss is an ordinary outcome, not a span error.
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartKey).(time.Time); ok {
		elapsed := time.Since(start)
		if elapsed > t.slowQueryThreshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", t.slowQueryThreshold.Milliseconds()),
			))
		}
	}
}
