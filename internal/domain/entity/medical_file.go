package entity

import (
	"time"

	"github.com/google/uuid"
)

// StorageBackend tags where the bytes of a MedicalFile live.
type StorageBackend string

const (
	StorageLocal  StorageBackend = "local"
	StorageRemote StorageBackend = "remote"
)

// StorageLocator points at stored file bytes: a filesystem path for
// StorageLocal, an object key for StorageRemote.
type StorageLocator struct {
	Backend StorageBackend `gorm:"type:varchar(10);not null" json:"backend"`
	Key     string         `gorm:"type:varchar(500);not null" json:"key"`
}

func LocalLocator(path string) StorageLocator {
	return StorageLocator{Backend: StorageLocal, Key: path}
}

func RemoteLocator(key string) StorageLocator {
	return StorageLocator{Backend: StorageRemote, Key: key}
}

func (l StorageLocator) IsRemote() bool {
	return l.Backend == StorageRemote
}

// MedicalFile is an uploaded document attached to a member.
type MedicalFile struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename    string         `gorm:"type:varchar(255);not null" json:"filename"`
	Locator     StorageLocator `gorm:"embedded;embeddedPrefix:storage_" json:"locator"`
	FileSize    int64          `gorm:"not null" json:"file_size"`
	FileType    string         `gorm:"type:varchar(100)" json:"file_type"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	MemberID    uint           `gorm:"not null;index" json:"member_id"`
	UploadedBy  *uuid.UUID     `gorm:"type:uuid;index" json:"uploaded_by,omitempty"`
	UploadedAt  time.Time      `gorm:"autoCreateTime" json:"uploaded_at"`

	// Relationships
	Uploader *User `gorm:"foreignKey:UploadedBy;constraint:OnDelete:SET NULL" json:"uploader,omitempty"`
}

func (MedicalFile) TableName() string {
	return "medical_files"
}
