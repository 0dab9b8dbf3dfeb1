package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an operator account of the records office.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID    int        `gorm:"not null;index" json:"role_id"`
	Username  string     `gorm:"type:varchar(80);uniqueIndex:uq_users_username;not null" json:"username"`
	Email     string     `gorm:"type:varchar(120);uniqueIndex:uq_users_email;not null" json:"email"`
	Password  string     `gorm:"type:text;not null" json:"-"`
	IsActive  bool       `gorm:"not null;index" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (User) TableName() string {
	return "users"
}

const (
	ConstraintUserUsername = "uq_users_username"
	ConstraintUserEmail    = "uq_users_email"
)

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
