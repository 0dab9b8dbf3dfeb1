package database

import (
	"medical-records/config"
	"medical-records/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the database selected by cfg.Driver.
func NewConnection(cfg config.DBConfig, env string) (*gorm.DB, error) {
	level := logger.Warn
	if env == "development" {
		level = logger.Info
	}

	if cfg.Driver == config.DriverSQLite {
		return NewSQLiteConnection(cfg.SQLiteFile(), level)
	}
	return NewPostgresConnection(cfg, level)
}

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&entity.Role{},
		&entity.User{},
		&entity.Member{},
		&entity.Doctor{},
		&entity.Medication{},
		&entity.Diagnosis{},
		&entity.MedicalFile{},
		&entity.AuditLog{},
	}
}
