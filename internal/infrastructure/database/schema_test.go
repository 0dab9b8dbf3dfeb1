package database

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"medical-records/internal/domain/entity"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/records?sslmode=disable":   "pgx5://u:p@db:5432/records?sslmode=disable",
		"postgresql://u:p@db:5432/records?sslmode=disable": "pgx5://u:p@db:5432/records?sslmode=disable",
		"pgx5://already": "pgx5://already",
	}
	for in, want := range tests {
		if got := MigrateURL(in); got != want {
			t.Errorf("MigrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSchemaMissing(t *testing.T) {
	if !IsSchemaMissing(&pgconn.PgError{Code: "42P01"}) {
		t.Error("undefined_table should be reported as missing schema")
	}
	if IsSchemaMissing(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation is not a missing schema")
	}
	if !IsSchemaMissing(errors.New("no such table: members")) {
		t.Error("sqlite missing table should be reported as missing schema")
	}
	if IsSchemaMissing(nil) {
		t.Error("nil is not a missing schema")
	}
}

func TestSchemaHealing_CreatesMissingTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)

	schema := NewAutoMigrator(db, log)
	if err := RegisterSchemaHealing(db, schema, log); err != nil {
		t.Fatalf("RegisterSchemaHealing: %v", err)
	}

	var count int64
	if err := db.Model(&entity.Member{}).Count(&count).Error; err == nil {
		t.Fatal("expected first query against an empty database to fail")
	}

	if err := db.Model(&entity.Member{}).Count(&count).Error; err != nil {
		t.Fatalf("query after healing: %v", err)
	}

	tables, err := schema.Tables(context.Background())
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if len(tables) < len(Models()) {
		t.Errorf("got %d tables after healing, want at least %d", len(tables), len(Models()))
	}
}

func TestMigrator_ReplaysScriptsForDroppedTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	m := &migrator{db: db, log: log}

	var replayed []string
	replay := func(ctx context.Context, script string) error {
		replayed = append(replayed, script)
		return db.WithContext(ctx).AutoMigrate(Models()...)
	}

	if err := m.restoreMissing(context.Background(), replay); err != nil {
		t.Fatalf("restoreMissing on a full schema: %v", err)
	}
	if len(replayed) != 0 {
		t.Fatalf("replayed %d scripts with no table missing", len(replayed))
	}

	if err := db.Migrator().DropTable(&entity.Doctor{}); err != nil {
		t.Fatalf("drop doctors: %v", err)
	}
	if missing := m.missingTables(context.Background()); len(missing) != 1 || missing[0] != "doctors" {
		t.Fatalf("missingTables = %v, want [doctors]", missing)
	}

	if err := m.restoreMissing(context.Background(), replay); err != nil {
		t.Fatalf("restoreMissing: %v", err)
	}
	if len(replayed) != 1 || !strings.Contains(replayed[0], "CREATE TABLE IF NOT EXISTS doctors") {
		t.Fatalf("replayed scripts = %d, want the init schema", len(replayed))
	}
	if !db.Migrator().HasTable(&entity.Doctor{}) {
		t.Error("doctors still missing after replay")
	}
}

func TestInitSchemaScript_IsIdempotent(t *testing.T) {
	script, err := migrationFiles.ReadFile("migrations/000001_init_schema.up.sql")
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	for _, line := range strings.Split(string(script), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "CREATE") && !strings.Contains(line, "IF NOT EXISTS") {
			t.Errorf("statement is not idempotent: %s", line)
		}
	}
}
