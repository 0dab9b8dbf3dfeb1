package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadFileRequest struct {
	Filename    string
	ContentType string
	Description string `validate:"max=1000"`
}

type MedicalFileResponse struct {
	ID          uint       `json:"id"`
	Filename    string     `json:"filename"`
	FileSize    int64      `json:"file_size"`
	FileType    string     `json:"file_type"`
	Description string     `json:"description,omitempty"`
	Storage     string     `json:"storage"`
	UploadedBy  *uuid.UUID `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time  `json:"uploaded_at"`
}

type UploadFileResponse struct {
	File    MedicalFileResponse `json:"file"`
	Warning string              `json:"-"`
}
