package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"medical-records/internal/converter"
	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/entity"
	"medical-records/internal/domain/repository"
	"medical-records/internal/service"
	"medical-records/pkg/jwt"
	"medical-records/pkg/memberid"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrFileRequired       = errors.New("no file selected")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file exceeds the maximum upload size")
	ErrFileNotFound       = errors.New("file not found")
	ErrFileForbidden      = errors.New("only an admin or the uploader can delete this file")
	ErrFileUnavailable    = errors.New("file is no longer available")
)

// AllowedExtensions lists the accepted upload extensions, lower-case and
// without the leading dot.
var AllowedExtensions = []string{"pdf", "png", "jpg", "jpeg", "gif", "doc", "docx"}

// AllowedFile reports whether filename has an accepted extension.
func AllowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// FileContent is a resolved download. Exactly one of RedirectURL and File
// is set; the caller closes File.
type FileContent struct {
	Filename    string
	ContentType string
	Size        int64
	RedirectURL string
	File        *os.File
}

type MedicalFileUsecase interface {
	Upload(ctx context.Context, actor jwt.Identity, publicID string, req *dto.UploadFileRequest, content io.ReadSeeker) (*dto.UploadFileResponse, error)
	Open(ctx context.Context, fileID uint) (*FileContent, error)
	Delete(ctx context.Context, actor jwt.Identity, fileID uint) (*dto.MutationResult, error)
}

type medicalFileUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	memberRepo      repository.MemberRepository
	medicalFileRepo repository.MedicalFileRepository
	storage         service.StorageGateway
	auditService    service.AuditService
	maxUploadSize   int64
}

func NewMedicalFileUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	memberRepo repository.MemberRepository,
	medicalFileRepo repository.MedicalFileRepository,
	storage service.StorageGateway,
	auditService service.AuditService,
	maxUploadSize int64,
) MedicalFileUsecase {
	return &medicalFileUsecase{
		db:              db,
		log:             log,
		memberRepo:      memberRepo,
		medicalFileRepo: medicalFileRepo,
		storage:         storage,
		auditService:    auditService,
		maxUploadSize:   maxUploadSize,
	}
}

func (u *medicalFileUsecase) Upload(ctx context.Context, actor jwt.Identity, publicID string, req *dto.UploadFileRequest, content io.ReadSeeker) (*dto.UploadFileResponse, error) {
	member, err := u.memberRepo.FindByPublicID(ctx, u.db, memberid.Normalize(publicID))
	if err != nil {
		u.log.Warnf("Failed to find member: %+v", err)
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	filename := cleanFilename(req.Filename)
	if content == nil || filename == "" {
		return nil, ErrFileRequired
	}
	if !AllowedFile(filename) {
		return nil, ErrFileTypeNotAllowed
	}

	size, err := content.Seek(0, io.SeekEnd)
	if err != nil {
		u.log.Warnf("Failed to measure upload: %+v", err)
		return nil, err
	}
	if size == 0 {
		return nil, ErrFileRequired
	}
	if u.maxUploadSize > 0 && size > u.maxUploadSize {
		return nil, ErrFileTooLarge
	}

	stored, err := u.storage.Store(ctx, content, filename, req.ContentType, member.MemberID)
	if err != nil {
		u.log.Warnf("Failed to store upload: %+v", err)
		return nil, err
	}

	file := &entity.MedicalFile{
		Filename:    filename,
		Locator:     stored.Locator,
		FileSize:    stored.Size,
		FileType:    stored.ContentType,
		Description: strings.TrimSpace(req.Description),
		MemberID:    member.ID,
		UploadedBy:  actorID(actor),
	}

	if err := u.saveFileRow(ctx, file); err != nil {
		if delErr := u.storage.Delete(ctx, stored.Locator); delErr != nil {
			u.log.WithField("key", stored.Locator.Key).Warnf("Failed to remove orphaned upload: %+v", delErr)
		}
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, u.db, actorID(actor), entity.AuditActionFileUpload, "medical_file", strconv.FormatUint(uint64(file.ID), 10), map[string]interface{}{
		"member_id": member.MemberID,
		"file":      converter.MedicalFileToResponse(file),
	})

	return &dto.UploadFileResponse{
		File:    *converter.MedicalFileToResponse(file),
		Warning: stored.Warning,
	}, nil
}

func (u *medicalFileUsecase) saveFileRow(ctx context.Context, file *entity.MedicalFile) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.medicalFileRepo.Create(ctx, tx, file); err != nil {
		u.log.Warnf("Failed to create medical file: %+v", err)
		return err
	}

	if err := u.memberRepo.Touch(ctx, tx, file.MemberID); err != nil {
		u.log.Warnf("Failed to touch member: %+v", err)
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	return nil
}

func (u *medicalFileUsecase) Open(ctx context.Context, fileID uint) (*FileContent, error) {
	file, err := u.medicalFileRepo.FindByID(ctx, u.db, fileID)
	if err != nil {
		u.log.Warnf("Failed to find medical file: %+v", err)
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}

	resolved, err := u.storage.Resolve(ctx, file.Locator, file.Filename)
	if err != nil {
		u.log.WithField("file_id", file.ID).Warnf("Failed to resolve stored file: %+v", err)
		return nil, ErrFileUnavailable
	}

	return &FileContent{
		Filename:    file.Filename,
		ContentType: file.FileType,
		Size:        file.FileSize,
		RedirectURL: resolved.RedirectURL,
		File:        resolved.File,
	}, nil
}

// Delete removes the stored bytes, then the row. A storage failure is
// returned as a warning and does not keep the row.
func (u *medicalFileUsecase) Delete(ctx context.Context, actor jwt.Identity, fileID uint) (*dto.MutationResult, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	file, err := u.medicalFileRepo.FindByID(ctx, tx, fileID)
	if err != nil {
		u.log.Warnf("Failed to find medical file: %+v", err)
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}

	if !canDeleteFile(actor, file) {
		return nil, ErrFileForbidden
	}

	result := &dto.MutationResult{}
	if err := u.storage.Delete(ctx, file.Locator); err != nil {
		u.log.WithField("key", file.Locator.Key).Warnf("Failed to delete stored file: %+v", err)
		result.Warnings = append(result.Warnings, "stored file could not be deleted")
	}

	if err := u.medicalFileRepo.Delete(ctx, tx, file); err != nil {
		u.log.Warnf("Failed to delete medical file: %+v", err)
		return nil, err
	}

	if err := u.memberRepo.Touch(ctx, tx, file.MemberID); err != nil {
		u.log.Warnf("Failed to touch member: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogDelete(ctx, u.db, actorID(actor), entity.AuditActionFileDelete, "medical_file", strconv.FormatUint(uint64(file.ID), 10), converter.MedicalFileToResponse(file))

	return result, nil
}

func canDeleteFile(actor jwt.Identity, file *entity.MedicalFile) bool {
	if actor.RoleID == entity.RoleIDAdmin {
		return true
	}
	return file.UploadedBy != nil && actor.UserID == *file.UploadedBy
}

// cleanFilename keeps only the base name of a client supplied path.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimSpace(filepath.Base(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
