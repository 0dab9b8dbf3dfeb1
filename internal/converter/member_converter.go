package converter

import (
	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// MemberToResponse converts a Member entity, with whatever associations are
// loaded, to MemberResponse DTO
func MemberToResponse(member *entity.Member) *dto.MemberResponse {
	if member == nil {
		return nil
	}

	response := &dto.MemberResponse{
		ID:           member.ID,
		MemberID:     member.MemberID,
		Name:         member.Name,
		DateOfBirth:  member.DateOfBirth.Format(dateLayout),
		Age:          member.Age,
		Gender:       member.Gender,
		Underlying:   member.Underlying,
		DrugAllergy:  member.DrugAllergy,
		Doctors:      make([]dto.CareRecordResponse, 0, len(member.Doctors)),
		Medications:  make([]dto.CareRecordResponse, 0, len(member.Medications)),
		Diagnoses:    make([]dto.CareRecordResponse, 0, len(member.Diagnoses)),
		MedicalFiles: MedicalFilesToResponses(member.MedicalFiles),
		CreatedAt:    member.CreatedAt,
		UpdatedAt:    member.UpdatedAt,
	}

	for i := range member.Doctors {
		response.Doctors = append(response.Doctors, *CareRecordToResponse(&member.Doctors[i]))
	}
	for i := range member.Medications {
		response.Medications = append(response.Medications, *CareRecordToResponse(&member.Medications[i]))
	}
	for i := range member.Diagnoses {
		response.Diagnoses = append(response.Diagnoses, *CareRecordToResponse(&member.Diagnoses[i]))
	}

	return response
}

// MembersToSummaries converts a slice of Member entities to list entries
func MembersToSummaries(members []entity.Member) []dto.MemberSummaryResponse {
	summaries := make([]dto.MemberSummaryResponse, len(members))
	for i, m := range members {
		summaries[i] = dto.MemberSummaryResponse{
			MemberID:    m.MemberID,
			Name:        m.Name,
			DateOfBirth: m.DateOfBirth.Format(dateLayout),
			Age:         m.Age,
			Gender:      m.Gender,
			CreatedAt:   m.CreatedAt,
		}
	}
	return summaries
}

func CareRecordToResponse(record entity.CareRecord) *dto.CareRecordResponse {
	return &dto.CareRecordResponse{
		ID:   record.GetID(),
		Name: record.GetName(),
	}
}

// MemberToRecord flattens a member and its care record names.
func MemberToRecord(member *entity.Member, withTimestamps bool) dto.MemberRecord {
	record := dto.MemberRecord{
		MemberID:    member.MemberID,
		Name:        member.Name,
		DateOfBirth: member.DateOfBirth.Format(dateLayout),
		Gender:      member.Gender,
		Underlying:  member.Underlying,
		DrugAllergy: member.DrugAllergy,
		Doctors:     make(dto.TextList, 0, len(member.Doctors)),
		Medications: make(dto.TextList, 0, len(member.Medications)),
		Diagnoses:   make(dto.TextList, 0, len(member.Diagnoses)),
	}
	for _, d := range member.Doctors {
		record.Doctors = append(record.Doctors, d.Name)
	}
	for _, m := range member.Medications {
		record.Medications = append(record.Medications, m.Name)
	}
	for _, d := range member.Diagnoses {
		record.Diagnoses = append(record.Diagnoses, d.Name)
	}

	if withTimestamps {
		createdAt, updatedAt := member.CreatedAt, member.UpdatedAt
		record.Age = member.Age
		record.CreatedAt = &createdAt
		record.UpdatedAt = &updatedAt
	}
	return record
}
