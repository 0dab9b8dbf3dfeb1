package entity

import (
	"time"

	"github.com/google/uuid"
)

// Member is a patient record subject, addressed publicly by MemberID.
type Member struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID    string     `gorm:"column:member_id;type:varchar(6);uniqueIndex:uq_members_member_id;not null" json:"member_id"`
	Name        string     `gorm:"type:varchar(100);not null;uniqueIndex:uq_members_name_dob,priority:1;index" json:"name"`
	DateOfBirth time.Time  `gorm:"type:date;not null;uniqueIndex:uq_members_name_dob,priority:2" json:"date_of_birth"`
	Age         int        `gorm:"not null" json:"age"`
	Gender      string     `gorm:"type:varchar(10);not null" json:"gender"`
	Underlying  string     `gorm:"type:varchar(200)" json:"underlying,omitempty"`
	DrugAllergy string     `gorm:"type:varchar(200)" json:"drug_allergy,omitempty"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctors      []Doctor      `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"doctors,omitempty"`
	Medications  []Medication  `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"medications,omitempty"`
	Diagnoses    []Diagnosis   `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"diagnoses,omitempty"`
	MedicalFiles []MedicalFile `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"medical_files,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

// Unique constraint names, shared by the gorm tags and the SQL migrations.
const (
	ConstraintMemberPublicID = "uq_members_member_id"
	ConstraintMemberNameDOB  = "uq_members_name_dob"
)

// AgeOn returns the age in whole years on the given day.
func AgeOn(dob, on time.Time) int {
	age := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
