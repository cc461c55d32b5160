package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observedLogger returns a logger whose output can be inspected in tests.
func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// enrichedContext builds a context carrying the identifiers a request
// handler would attach while processing a hospital report call.
func enrichedContext(t *testing.T, logger *zap.Logger) context.Context {
	t.Helper()

	ctx := context.Background()
	ctx, logger = WithRequestID(ctx, logger, "req-laporan-17")
	ctx, logger = WithHospitalID(ctx, logger, "rs-harapan")
	ctx, logger = WithUserID(ctx, logger, "user-bendahara-3")
	return WithContext(ctx, logger)
}

func TestWithContext(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx := WithContext(context.Background(), logger)
	assert.NotNil(t, FromContext(ctx))
}

func TestFromContext_Fallback(t *testing.T) {
	t.Run("empty context returns usable logger", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		assert.NotPanics(t, func() {
			logger.Info("archive sweep finished")
			logger.With(zap.String("hospital_id", "rs-harapan")).Warn("slow query")
		})
	})

	t.Run("wrong value type returns usable logger", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		logger := FromContext(ctx)
		require.NotNil(t, logger)
		assert.NotPanics(t, func() { logger.Info("report approved") })
	})
}

func TestContextEnrichment(t *testing.T) {
	base, err := NewForEnvironment("development")
	require.NoError(t, err)

	t.Run("request id", func(t *testing.T) {
		ctx, logger := WithRequestID(context.Background(), base, "req-laporan-17")
		assert.Equal(t, "req-laporan-17", GetRequestID(ctx))
		assert.NotNil(t, logger)
	})

	t.Run("hospital id", func(t *testing.T) {
		ctx, logger := WithHospitalID(context.Background(), base, "rs-harapan")
		assert.Equal(t, "rs-harapan", GetHospitalID(ctx))
		assert.NotNil(t, logger)
	})

	t.Run("user id", func(t *testing.T) {
		ctx, logger := WithUserID(context.Background(), base, "user-bendahara-3")
		assert.Equal(t, "user-bendahara-3", GetUserID(ctx))
		assert.NotNil(t, logger)
	})

	t.Run("chained enrichment keeps every field", func(t *testing.T) {
		ctx := context.Background()
		logger := base
		ctx, logger = WithRequestID(ctx, logger, "req-laporan-17")
		ctx, logger = WithHospitalID(ctx, logger, "rs-harapan")
		ctx, logger = WithUserID(ctx, logger, "user-bendahara-3")

		assert.Equal(t, "req-laporan-17", GetRequestID(ctx))
		assert.Equal(t, "rs-harapan", GetHospitalID(ctx))
		assert.Equal(t, "user-bendahara-3", GetUserID(ctx))
		assert.NotNil(t, logger)
	})

	t.Run("later request id replaces the earlier one", func(t *testing.T) {
		ctx, _ := WithRequestID(context.Background(), base, "req-laporan-17")
		ctx, _ = WithRequestID(ctx, base, "req-laporan-18")
		assert.Equal(t, "req-laporan-18", GetRequestID(ctx))
	})

	t.Run("enriched logger is stored in the context", func(t *testing.T) {
		ctx, enriched := WithRequestID(context.Background(), base, "req-laporan-17")
		assert.NotEqual(t, base, enriched)
		assert.NotNil(t, FromContext(ctx))
	})
}

func TestContextAccessors_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetHospitalID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestContextKeysAreDistinct(t *testing.T) {
	keys := []contextKey{LoggerKey, RequestIDKey, HospitalIDKey, UserIDKey}
	seen := map[contextKey]bool{}
	for _, key := range keys {
		assert.False(t, seen[key], "duplicate context key %q", key)
		seen[key] = true
	}
}

func TestTraceCorrelation(t *testing.T) {
	t.Run("no span yields empty identifiers", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, GetTraceID(ctx))
		assert.Empty(t, GetSpanID(ctx))
	})

	t.Run("recording span yields identifiers", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		ctx, span := tp.Tracer("context-test").Start(context.Background(), "GET /api/v1/reports")
		defer span.End()

		assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
		assert.Equal(t, span.SpanContext().SpanID().String(), GetSpanID(ctx))
	})

	t.Run("noop span yields empty identifiers", func(t *testing.T) {
		tracer := noop.NewTracerProvider().Tracer("context-test")
		ctx, span := tracer.Start(context.Background(), "GET /api/v1/reports")
		defer span.End()

		require.False(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
		assert.Empty(t, GetTraceID(ctx))
		assert.Empty(t, GetSpanID(ctx))
	})
}

func TestWithTraceContext(t *testing.T) {
	base := zap.NewNop()

	t.Run("no span returns the logger unchanged", func(t *testing.T) {
		assert.Equal(t, base, WithTraceContext(context.Background(), base))
	})

	t.Run("invalid span context returns the logger unchanged", func(t *testing.T) {
		tracer := noop.NewTracerProvider().Tracer("context-test")
		ctx, span := tracer.Start(context.Background(), "GET /api/v1/reports")
		defer span.End()

		assert.Equal(t, base, WithTraceContext(ctx, base))
	})

	t.Run("recording span enriches the logger", func(t *testing.T) {
		logger, logs := observedLogger()

		tp := sdktrace.NewTracerProvider()
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
		ctx, span := tp.Tracer("context-test").Start(context.Background(), "GET /api/v1/reports")
		defer span.End()

		WithTraceContext(ctx, logger).Info("report fetched")

		entries := logs.All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	})
}

func TestL(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		cl := L(context.Background())
		require.NotNil(t, cl)
		assert.NotNil(t, cl.ctx)
		assert.NotNil(t, cl.logger)
	})

	t.Run("picks up logger from context", func(t *testing.T) {
		logger, logs := observedLogger()
		ctx := WithContext(context.Background(), logger)

		L(ctx).Info("schedule reconciled")
		assert.Equal(t, 1, logs.Len())
	})
}

func TestWithLogger(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	cl := WithLogger(context.Background(), logger)
	require.NotNil(t, cl)
	assert.Equal(t, logger, cl.logger)
}

func TestContextLogger_With(t *testing.T) {
	logger, logs := observedLogger()
	ctx := context.Background()

	cl := WithLogger(ctx, logger).
		With(zap.String("report_id", "rep-001")).
		With(zap.String("period", "2026-07"))

	require.NotNil(t, cl)
	assert.Equal(t, ctx, cl.ctx)
	assert.NotEqual(t, logger, cl.logger)

	cl.Info("report duplicated")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rep-001", fields["report_id"])
	assert.Equal(t, "2026-07", fields["period"])
}

func TestContextLogger_Levels(t *testing.T) {
	logger, logs := observedLogger()
	cl := WithLogger(context.Background(), logger)

	cl.Debug("checking archive cutoff")
	cl.Info("archive sweep started")
	cl.Warn("archive sweep slow")
	cl.Error("archive sweep failed")

	require.Equal(t, 4, logs.Len())
	levels := []zapcore.Level{}
	for _, entry := range logs.All() {
		levels = append(levels, entry.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, levels)
}

func TestContextLogger_EnrichesFromContext(t *testing.T) {
	logger, logs := observedLogger()
	ctx := enrichedContext(t, logger)

	L(ctx).Info("submission recorded", zap.String("report_id", "rep-001"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "submission recorded", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "req-laporan-17", fields["request_id"])
	assert.Equal(t, "rs-harapan", fields["hospital_id"])
	assert.Equal(t, "user-bendahara-3", fields["user_id"])
	assert.Equal(t, "rep-001", fields["report_id"])
}

func TestContextLogger_SkipsEmptyContextFields(t *testing.T) {
	logger, logs := observedLogger()

	WithLogger(context.Background(), logger).Info("startup complete")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.NotContains(t, fields, "request_id")
	assert.NotContains(t, fields, "hospital_id")
	assert.NotContains(t, fields, "user_id")
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}
	assert.NotPanics(t, func() { cl.Info("fallback path") })
}

func TestContextLogger_ZapAndSugar(t *testing.T) {
	logger, logs := observedLogger()
	cl := WithLogger(context.Background(), logger)

	require.NotNil(t, cl.Zap())
	cl.Zap().Info("raw zap message")

	require.NotNil(t, cl.Sugar())
	cl.Sugar().Infof("sugared for %s", "rs-harapan")

	assert.Equal(t, 2, logs.Len())
}
