package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	"medical-records/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SchemaInitializer creates any missing tables. EnsureSchema is idempotent.
type SchemaInitializer interface {
	EnsureSchema(ctx context.Context) error
	Tables(ctx context.Context) ([]string, error)
}

// NewSchemaInitializer picks versioned migrations for PostgreSQL and
// AutoMigrate for SQLite.
func NewSchemaInitializer(db *gorm.DB, cfg config.DBConfig, log *logrus.Logger) SchemaInitializer {
	if cfg.Driver == config.DriverSQLite {
		return NewAutoMigrator(db, log)
	}
	return &migrator{
		db:          db,
		log:         log,
		databaseURL: MigrateURL(cfg.PostgresURL()),
	}
}

type migrator struct {
	db          *gorm.DB
	log         *logrus.Logger
	databaseURL string
}

// EnsureSchema applies pending migrations, then recreates any table that
// went missing after its migration was recorded.
func (m *migrator) EnsureSchema(ctx context.Context) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	mg, err := migrate.NewWithSourceInstance("iofs", src, m.databaseURL)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer mg.Close()

	if err := mg.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
		m.log.Info("Database schema is up to date")
	} else {
		version, _, _ := mg.Version()
		m.log.WithField("version", version).Info("Database migrations applied")
	}

	return m.restoreMissing(ctx, m.execScript)
}

// restoreMissing replays the up scripts when a model table is absent. The
// scripts only use IF NOT EXISTS, so existing tables are left alone.
func (m *migrator) restoreMissing(ctx context.Context, exec func(ctx context.Context, script string) error) error {
	missing := m.missingTables(ctx)
	if len(missing) == 0 {
		return nil
	}

	m.log.WithField("tables", missing).Warn("Tables missing after migration, replaying schema scripts")

	scripts, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(scripts)

	for _, name := range scripts {
		script, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := exec(ctx, string(script)); err != nil {
			return fmt.Errorf("replay %s: %w", name, err)
		}
	}
	return nil
}

func (m *migrator) missingTables(ctx context.Context) []string {
	tables := m.db.WithContext(ctx).Migrator()

	var missing []string
	for _, model := range Models() {
		if !tables.HasTable(model) {
			stmt := &gorm.Statement{DB: m.db}
			if err := stmt.Parse(model); err == nil {
				missing = append(missing, stmt.Schema.Table)
			}
		}
	}
	return missing
}

func (m *migrator) execScript(ctx context.Context, script string) error {
	return m.db.WithContext(ctx).Exec(script).Error
}

func (m *migrator) Tables(ctx context.Context) ([]string, error) {
	return m.db.WithContext(ctx).Migrator().GetTables()
}

// MigrateURL rewrites a postgres:// URL to the scheme of the pgx v5
// migrate driver.
func MigrateURL(postgresURL string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(postgresURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(postgresURL, prefix)
		}
	}
	return postgresURL
}

type autoMigrator struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewAutoMigrator(db *gorm.DB, log *logrus.Logger) SchemaInitializer {
	return &autoMigrator{db: db, log: log}
}

func (m *autoMigrator) EnsureSchema(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	m.log.Info("Database schema synchronized")
	return nil
}

func (m *autoMigrator) Tables(ctx context.Context) ([]string, error) {
	return m.db.WithContext(ctx).Migrator().GetTables()
}

// IsSchemaMissing reports whether err was caused by a table that does not
// exist yet.
func IsSchemaMissing(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return strings.Contains(err.Error(), "no such table")
}

// RegisterSchemaHealing installs gorm callbacks that run EnsureSchema the
// first time a statement fails on a missing table. The failing statement
// still returns its error. Concurrent failures trigger a single run.
func RegisterSchemaHealing(db *gorm.DB, schema SchemaInitializer, log *logrus.Logger) error {
	h := &schemaHealer{schema: schema, log: log}

	cb := db.Callback()
	registrations := []struct {
		name     string
		register func() error
	}{
		{"query", func() error { return cb.Query().After("gorm:query").Register("schema:heal_query", h.observe) }},
		{"create", func() error { return cb.Create().After("gorm:create").Register("schema:heal_create", h.observe) }},
		{"update", func() error { return cb.Update().After("gorm:update").Register("schema:heal_update", h.observe) }},
		{"delete", func() error { return cb.Delete().After("gorm:delete").Register("schema:heal_delete", h.observe) }},
		{"row", func() error { return cb.Row().After("gorm:row").Register("schema:heal_row", h.observe) }},
		{"raw", func() error { return cb.Raw().After("gorm:raw").Register("schema:heal_raw", h.observe) }},
	}
	for _, r := range registrations {
		if err := r.register(); err != nil {
			return fmt.Errorf("register %s callback: %w", r.name, err)
		}
	}
	return nil
}

type schemaHealer struct {
	mu     sync.Mutex
	schema SchemaInitializer
	log    *logrus.Logger
}

func (h *schemaHealer) observe(tx *gorm.DB) {
	if !IsSchemaMissing(tx.Error) {
		return
	}
	if !h.mu.TryLock() {
		return
	}
	defer h.mu.Unlock()

	h.log.Warnf("Missing table detected, initializing schema: %+v", tx.Error)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := h.schema.EnsureSchema(ctx); err != nil {
		h.log.Errorf("Failed to initialize schema: %+v", err)
	}
}
