package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog records one change made through the API. Entity and EntityID
// name what was changed; care record entries carry the owning member's
// public ID so a member's history can be listed in one query.
type AuditLog struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string     `gorm:"type:varchar(100);not null;index" json:"action"`
	Entity    string     `gorm:"type:varchar(50);not null;default:'';index:idx_audit_logs_entity" json:"entity"`
	EntityID  string     `gorm:"type:varchar(64);not null;default:'';index:idx_audit_logs_entity" json:"entity_id"`
	Metadata  JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// JSON is a JSONB column on Postgres and a TEXT column on SQLite.
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	result := map[string]interface{}{}
	err := json.Unmarshal(bytes, &result)
	*j = JSON(result)
	return err
}

// Audit actions
const (
	AuditActionUserLogin      = "user.login"
	AuditActionUserLogout     = "user.logout"
	AuditActionUserRegister   = "user.register"
	AuditActionUserCreate     = "user.create"
	AuditActionUserToggle     = "user.toggle_active"
	AuditActionMemberCreate   = "member.create"
	AuditActionMemberUpdate   = "member.update"
	AuditActionMemberDelete   = "member.delete"
	AuditActionMemberImport   = "member.import"
	AuditActionCareRecordAdd  = "care_record.add"
	AuditActionCareRecordEdit = "care_record.edit"
	AuditActionCareRecordDel  = "care_record.delete"
	AuditActionFileUpload     = "file.upload"
	AuditActionFileDelete     = "file.delete"
)
