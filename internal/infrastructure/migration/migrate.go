package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/resys/backend/migrations"
	"go.uber.org/zap"
)

// DefaultTable is the bookkeeping table golang-migrate writes versions to
const DefaultTable = "schema_migrations"

// Migrator applies the versioned schema to a postgres database
type Migrator struct {
	migrate *migrate.Migrate
	source  fs.FS
	logger  *zap.Logger
}

type options struct {
	source fs.FS
	table  string
	logger *zap.Logger
}

// Option configures a Migrator
type Option func(*options)

// WithDir reads migrations from a directory on disk instead of the embedded set
func WithDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.source = os.DirFS(dir)
		}
	}
}

// WithSource reads migrations from an arbitrary filesystem
func WithSource(fsys fs.FS) Option {
	return func(o *options) {
		if fsys != nil {
			o.source = fsys
		}
	}
}

// WithTable overrides the version bookkeeping table
func WithTable(table string) Option {
	return func(o *options) {
		if table != "" {
			o.table = table
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a Migrator on top of an open postgres connection. The
// embedded schema is used unless WithDir or WithSource says otherwise.
func New(db *sql.DB, opts ...Option) (*Migrator, error) {
	o := &options{
		source: migrations.FS,
		table:  DefaultTable,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	src, err := iofs.New(o.source, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: o.table})
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: o.logger}

	return &Migrator{migrate: m, source: o.source, logger: o.logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.run("up", m.migrate.Up)
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	return m.run("down", m.migrate.Down)
}

// Steps applies n migrations forward, or -n backward when n is negative
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	return m.run(fmt.Sprintf("steps %d", n), func() error { return m.migrate.Steps(n) })
}

// To migrates up or down until the schema is at version
func (m *Migrator) To(version uint) error {
	return m.run(fmt.Sprintf("to %d", version), func() error { return m.migrate.Migrate(version) })
}

func (m *Migrator) run(op string, fn func() error) error {
	m.logger.Info("Running migrations", zap.String("op", op))

	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	st, err := m.Status()
	if err != nil {
		return err
	}
	m.logger.Info("Migrations finished",
		zap.String("op", op),
		zap.Uint("version", st.Version),
		zap.Bool("dirty", st.Dirty),
		zap.Int("pending", len(st.Pending)),
	)
	return nil
}

// Status reports the applied version and the migrations still to run
type Status struct {
	Version uint
	Dirty   bool
	Pending []Migration
}

// Status reads the current version and compares it against the source
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("read schema version: %w", err)
	}

	all, err := List(m.source)
	if err != nil {
		return Status{}, err
	}

	st := Status{Version: version, Dirty: dirty}
	for _, mig := range all {
		if mig.Version > version {
			st.Pending = append(st.Pending, mig)
		}
	}
	return st, nil
}

// Force records version as applied and clears the dirty flag without
// running any SQL. Pass -1 to mark the schema as empty.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the database, bookkeeping table included
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping all database objects")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// Close releases the source and the database driver
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

// migrateLogger forwards golang-migrate's progress lines to zap
type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
