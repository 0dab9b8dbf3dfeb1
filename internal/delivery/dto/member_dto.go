package dto

import "time"

// Request DTOs

type CreateMemberRequest struct {
	Name        string   `json:"name" validate:"required,notblank,max=100"`
	DateOfBirth string   `json:"date_of_birth" validate:"required,date"`
	Gender      string   `json:"gender" validate:"required,notblank,max=10"`
	Underlying  string   `json:"underlying" validate:"max=200"`
	DrugAllergy string   `json:"drug_allergy" validate:"max=200"`
	Doctors     TextList `json:"doctors" validate:"dive,max=100"`
	Medications TextList `json:"medications" validate:"dive,max=100"`
	Diagnoses   TextList `json:"diagnoses" validate:"dive,max=100"`
}

type UpdateMemberRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	DateOfBirth string `json:"date_of_birth" validate:"required,date"`
	Gender      string `json:"gender" validate:"required,notblank,max=10"`
	Underlying  string `json:"underlying" validate:"max=200"`
	DrugAllergy string `json:"drug_allergy" validate:"max=200"`
}

// MemberActionRequest selects the sub-operation of an update-member call.
// The remaining fields of the body are decoded per action.
type MemberActionRequest struct {
	Action string `json:"action" validate:"required"`
}

type AddCareRecordRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

type EditCareRecordRequest struct {
	RecordID uint   `json:"record_id" validate:"required"`
	Name     string `json:"name" validate:"required,notblank,max=100"`
}

type DeleteCareRecordRequest struct {
	RecordID uint `json:"record_id" validate:"required"`
}

// Response DTOs

type CareRecordResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type MemberResponse struct {
	ID           uint                  `json:"id"`
	MemberID     string                `json:"member_id"`
	Name         string                `json:"name"`
	DateOfBirth  string                `json:"date_of_birth"`
	Age          int                   `json:"age"`
	Gender       string                `json:"gender"`
	Underlying   string                `json:"underlying"`
	DrugAllergy  string                `json:"drug_allergy"`
	Doctors      []CareRecordResponse  `json:"doctors"`
	Medications  []CareRecordResponse  `json:"medications"`
	Diagnoses    []CareRecordResponse  `json:"diagnoses"`
	MedicalFiles []MedicalFileResponse `json:"medical_files"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type MemberSummaryResponse struct {
	MemberID    string    `json:"member_id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"date_of_birth"`
	Age         int       `json:"age"`
	Gender      string    `json:"gender"`
	CreatedAt   time.Time `json:"created_at"`
}

type MemberSearchResponse struct {
	Query   string                  `json:"query"`
	Members []MemberSummaryResponse `json:"members"`
	Total   int                     `json:"total"`
}

type DashboardResponse struct {
	TotalMembers    int64                   `json:"total_members"`
	RecentMembers   []MemberSummaryResponse `json:"recent_members"`
	RecentAdditions int64                   `json:"recent_additions"`
}

// MemberRecord is the flat projection used by the member API, backups and
// imports.
type MemberRecord struct {
	MemberID    string     `json:"member_id"`
	Name        string     `json:"name" validate:"required,notblank,max=100"`
	DateOfBirth string     `json:"date_of_birth" validate:"required,date"`
	Age         int        `json:"age,omitempty"`
	Gender      string     `json:"gender" validate:"required,notblank,max=10"`
	Underlying  string     `json:"underlying"`
	DrugAllergy string     `json:"drug_allergy"`
	Doctors     TextList   `json:"doctors"`
	Medications TextList   `json:"medications"`
	Diagnoses   TextList   `json:"diagnoses"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// BackupDocument is the backup file layout, also accepted by the import.
type BackupDocument struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Total       int            `json:"total"`
	Members     []MemberRecord `json:"members"`
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// MutationResult carries non-fatal warnings of a completed mutation.
type MutationResult struct {
	Warnings []string `json:"warnings,omitempty"`
}
