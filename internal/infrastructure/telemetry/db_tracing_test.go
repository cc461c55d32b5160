package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func newSpanRecorder() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)), recorder
}

func TestNewDBTracing(t *testing.T) {
	tracing := NewDBTracing(0, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, tracing.slowQueryThreshold)

	tracing = NewDBTracing(time.Second, zap.NewNop())
	assert.Equal(t, time.Second, tracing.slowQueryThreshold)
}

func TestDBTracing_Register(t *testing.T) {
	db := newTracedDB(t)
	tracing := NewDBTracing(200*time.Millisecond, zap.NewNop())

	require.NoError(t, tracing.Register(db))

	// The otelgorm plugin and the timing hooks must both be installed.
	assert.NotNil(t, db.Callback().Query().Get("hospfin_timing:before_query"))
	assert.NotNil(t, db.Callback().Query().Get("hospfin_timing:after_query"))
	assert.NotNil(t, db.Callback().Create().Get("hospfin_timing:after_create"))
}

func TestDBTracing_AfterQueryAttributes(t *testing.T) {
	tp, recorder := newSpanRecorder()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "report-query")

	db := newTracedDB(t)
	tx := db.Session(&gorm.Session{Context: ctx})
	tx.Statement.RowsAffected = 3
	tx.Statement.Table = "financial_reports"

	tracing := NewDBTracing(200*time.Millisecond, zap.NewNop())
	tracing.afterQuery(tx)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	attrs := spans[0].Attributes()
	var sawRows, sawTable bool
	for _, attr := range attrs {
		switch string(attr.Key) {
		case "db.rows_affected":
			sawRows = true
			assert.Equal(t, int64(3), attr.Value.AsInt64())
		case "db.sql.table":
			sawTable = true
			assert.Equal(t, "financial_reports", attr.Value.AsString())
		}
	}
	assert.True(t, sawRows)
	assert.True(t, sawTable)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestDBTracing_AfterQueryErrors(t *testing.T) {
	t.Run("marks query errors on the span", func(t *testing.T) {
		tp, recorder := newSpanRecorder()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("test").Start(context.Background(), "failing-query")

		db := newTracedDB(t)
		tx := db.Session(&gorm.Session{Context: ctx})
		tx.Error = errors.New("connection reset")

		NewDBTracing(200*time.Millisecond, zap.NewNop()).afterQuery(tx)
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("record miss is not an error", func(t *testing.T) {
		tp, recorder := newSpanRecorder()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("test").Start(context.Background(), "missing-report")

		db := newTracedDB(t)
		tx := db.Session(&gorm.Session{Context: ctx})
		tx.Error = gorm.ErrRecordNotFound

		NewDBTracing(200*time.Millisecond, zap.NewNop()).afterQuery(tx)
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})
}

func TestDBTracing_SlowQueryFlag(t *testing.T) {
	tp, recorder := newSpanRecorder()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "slow-query")
	ctx = context.WithValue(ctx, queryStartKey, time.Now().Add(-time.Second))

	db := newTracedDB(t)
	tx := db.Session(&gorm.Session{Context: ctx})

	NewDBTracing(time.Millisecond, zap.NewNop()).afterQuery(tx)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	var flagged bool
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "db.slow_query" && attr.Value.AsBool() {
			flagged = true
		}
	}
	assert.True(t, flagged)

	var sawWarning bool
	for _, event := range spans[0].Events() {
		if event.Name == "slow_query_warning" {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}

func TestDBTracing_NonRecordingSpan(t *testing.T) {
	db := newTracedDB(t)
	tx := db.Session(&gorm.Session{Context: context.Background()})
	tx.Statement.RowsAffected = 1

	// No active span in the context, must be a no-op.
	NewDBTracing(200*time.Millisecond, zap.NewNop()).afterQuery(tx)
}
