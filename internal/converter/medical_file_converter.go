package converter

import (
	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/entity"
)

func MedicalFileToResponse(file *entity.MedicalFile) *dto.MedicalFileResponse {
	if file == nil {
		return nil
	}

	return &dto.MedicalFileResponse{
		ID:          file.ID,
		Filename:    file.Filename,
		FileSize:    file.FileSize,
		FileType:    file.FileType,
		Description: file.Description,
		Storage:     string(file.Locator.Backend),
		UploadedBy:  file.UploadedBy,
		UploadedAt:  file.UploadedAt,
	}
}

func MedicalFilesToResponses(files []entity.MedicalFile) []dto.MedicalFileResponse {
	responses := make([]dto.MedicalFileResponse, len(files))
	for i := range files {
		responses[i] = *MedicalFileToResponse(&files[i])
	}
	return responses
}
