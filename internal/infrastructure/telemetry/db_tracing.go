package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "resys:query_start"

// DBTracingConfig controls the otelgorm integration.
type DBTracingConfig struct {
	Enabled         bool
	DBName          string
	LogFullSQL      bool // include bound variables in db.statement
	SlowQueryThresh time.Duration
}

// DefaultDBTracingConfig returns a disabled config that hides query variables.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		DBName:          "resys",
		SlowQueryThresh: 200 * time.Millisecond,
	}
}

// RegisterDBTracing installs the otelgorm plugin and a callback that
// annotates each query span with table, row count, errors and slowness.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := registerQueryTiming(db); err != nil {
		return err
	}

	annotate := func(tx *gorm.DB) { annotateSpan(tx, cfg.SlowQueryThresh) }
	if err := registerAfter(db, "resys_tracing", func(string) func(*gorm.DB) { return annotate }); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if elapsed, ok := queryElapsed(tx); ok && elapsed > slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

// registerQueryTiming stamps the start time on every statement. It is shared
// by the tracing and metrics callbacks and registered at most once.
func registerQueryTiming(db *gorm.DB) error {
	if db.Callback().Query().Get("resys_timing:before_query") != nil {
		return nil
	}
	stamp := func(tx *gorm.DB) { tx.InstanceSet(queryStartKey, time.Now()) }

	cb := db.Callback()
	steps := []struct {
		name     string
		register func(string, func(*gorm.DB)) error
	}{
		{"resys_timing:before_create", func(n string, f func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(n, f) }},
		{"resys_timing:before_query", func(n string, f func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(n, f) }},
		{"resys_timing:before_update", func(n string, f func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(n, f) }},
		{"resys_timing:before_delete", func(n string, f func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(n, f) }},
		{"resys_timing:before_row", func(n string, f func(*gorm.DB)) error { return cb.Row().Before("gorm:row").Register(n, f) }},
		{"resys_timing:before_raw", func(n string, f func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(n, f) }},
	}
	for _, s := range steps {
		if err := s.register(s.name, stamp); err != nil {
			return err
		}
	}
	return nil
}

// registerAfter registers an after-callback for every operation kind. build
// receives the SQL verb of the operation ("" for row and raw statements).
func registerAfter(db *gorm.DB, prefix string, build func(op string) func(*gorm.DB)) error {
	cb := db.Callback()
	steps := []struct {
		name     string
		register func(string, func(*gorm.DB)) error
		op       string
	}{
		{prefix + ":after_create", func(n string, f func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(n, f) }, "INSERT"},
		{prefix + ":after_query", func(n string, f func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(n, f) }, "SELECT"},
		{prefix + ":after_update", func(n string, f func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(n, f) }, "UPDATE"},
		{prefix + ":after_delete", func(n string, f func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(n, f) }, "DELETE"},
		{prefix + ":after_row", func(n string, f func(*gorm.DB)) error { return cb.Row().After("gorm:row").Register(n, f) }, ""},
		{prefix + ":after_raw", func(n string, f func(*gorm.DB)) error { return cb.Raw().After("gorm:raw").Register(n, f) }, ""},
	}
	for _, s := range steps {
		if err := s.register(s.name, build(s.op)); err != nil {
			return err
		}
	}
	return nil
}

func queryElapsed(tx *gorm.DB) (time.Duration, bool) {
	v, ok := tx.InstanceGet(queryStartKey)
	if !ok {
		return 0, false
	}
	start, ok := v.(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}
