package handler

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"medical-records/internal/delivery/dto"
	"medical-records/internal/delivery/http/middleware"
	"medical-records/internal/usecase"
	"medical-records/pkg/response"
	"medical-records/pkg/validator"

	"github.com/gorilla/mux"
)

// multipartOverhead is allowed on top of the file size for the other form
// fields and part headers.
const multipartOverhead = 1 << 20

type MedicalFileHandler struct {
	medicalFileUsecase usecase.MedicalFileUsecase
	validator          *validator.CustomValidator
	maxUploadSize      int64
}

func NewMedicalFileHandler(medicalFileUsecase usecase.MedicalFileUsecase, validator *validator.CustomValidator, maxUploadSize int64) *MedicalFileHandler {
	return &MedicalFileHandler{
		medicalFileUsecase: medicalFileUsecase,
		validator:          validator,
		maxUploadSize:      maxUploadSize,
	}
}

// UploadFile handles a multipart upload
// @Summary Upload a medical file
// @Description Upload a pdf, image or Word document for a member
// @Tags Files
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param public_id path string true "Member ID"
// @Param file formData file true "File"
// @Param description formData string false "Description"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 413 {object} response.Response
// @Router /upload-file/{public_id} [post]
func (h *MedicalFileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(w, http.StatusRequestEntityTooLarge, "File exceeds the maximum upload size", nil)
			return
		}
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file selected")
		return
	}
	defer file.Close()

	req := dto.UploadFileRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Description: r.FormValue("description"),
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	uploaded, err := h.medicalFileUsecase.Upload(r.Context(), middleware.IdentityFromContext(r.Context()), mux.Vars(r)["public_id"], &req, file)
	if err != nil {
		switch err {
		case usecase.ErrMemberNotFound:
			response.NotFound(w, "Member not found")
		case usecase.ErrFileRequired:
			response.BadRequest(w, "No file selected")
		case usecase.ErrFileTypeNotAllowed:
			response.BadRequest(w, "File type not allowed. Allowed types: pdf, png, jpg, jpeg, gif, doc, docx")
		case usecase.ErrFileTooLarge:
			response.Error(w, http.StatusRequestEntityTooLarge, "File exceeds the maximum upload size", nil)
		default:
			response.InternalServerError(w, "Failed to upload file")
		}
		return
	}

	if uploaded.Warning != "" {
		response.SuccessWithWarning(w, http.StatusCreated, "File uploaded successfully", uploaded.File, uploaded.Warning)
		return
	}
	response.Success(w, http.StatusCreated, "File uploaded successfully", uploaded.File)
}

func (h *MedicalFileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "attachment")
}

func (h *MedicalFileHandler) ViewFile(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "inline")
}

// serveFile redirects to a signed URL for remote files and streams local
// ones with the given Content-Disposition type.
func (h *MedicalFileHandler) serveFile(w http.ResponseWriter, r *http.Request, disposition string) {
	fileID, ok := pathID(w, r)
	if !ok {
		return
	}

	content, err := h.medicalFileUsecase.Open(r.Context(), fileID)
	if err != nil {
		switch err {
		case usecase.ErrFileNotFound:
			response.NotFound(w, "File not found")
		case usecase.ErrFileUnavailable:
			response.NotFound(w, "File is no longer available")
		default:
			response.InternalServerError(w, "Failed to get file")
		}
		return
	}

	if content.RedirectURL != "" {
		http.Redirect(w, r, content.RedirectURL, http.StatusFound)
		return
	}
	defer content.File.Close()

	info, err := content.File.Stat()
	if err != nil {
		response.InternalServerError(w, "Failed to get file")
		return
	}

	if content.ContentType != "" {
		w.Header().Set("Content-Type", content.ContentType)
	}
	w.Header().Set("Content-Disposition", contentDisposition(disposition, content.Filename))
	http.ServeContent(w, r, content.Filename, info.ModTime(), content.File)
}

func (h *MedicalFileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.medicalFileUsecase.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), fileID)
	if err != nil {
		switch err {
		case usecase.ErrFileNotFound:
			response.NotFound(w, "File not found")
		case usecase.ErrFileForbidden:
			response.Forbidden(w, "Only an admin or the uploader can delete this file")
		default:
			response.InternalServerError(w, "Failed to delete file")
		}
		return
	}

	if len(result.Warnings) > 0 {
		response.SuccessWithWarning(w, http.StatusOK, "File deleted successfully", nil, result.Warnings)
		return
	}
	response.Success(w, http.StatusOK, "File deleted successfully", nil)
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(w, "Invalid file ID")
		return 0, false
	}
	return uint(id), true
}

func contentDisposition(disposition, filename string) string {
	if v := mime.FormatMediaType(disposition, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return disposition
}
