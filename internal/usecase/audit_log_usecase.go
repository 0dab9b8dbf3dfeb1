package usecase

import (
	"context"
	"errors"

	"medical-records/internal/converter"
	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/entity"
	"medical-records/internal/domain/repository"
	"medical-records/pkg/memberid"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAuditLogNotFound = errors.New("audit log not found")
)

const (
	defaultAuditLogLimit = 50
	maxAuditLogLimit     = 200
)

type AuditLogUsecase interface {
	GetAllAuditLogs(ctx context.Context, req *dto.AuditLogQuery) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
	// GetMemberHistory lists the entries about one member and its care
	// records, newest first.
	GetMemberHistory(ctx context.Context, publicID string, page, limit int) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
	memberRepo   repository.MemberRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
	memberRepo repository.MemberRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
		memberRepo:   memberRepo,
	}
}

func (u *auditLogUsecase) GetAllAuditLogs(ctx context.Context, req *dto.AuditLogQuery) (*dto.AuditLogListResponse, error) {
	filter := &entity.AuditLogFilter{
		Action:   req.Action,
		Entity:   req.Entity,
		EntityID: req.EntityID,
		UserID:   req.UserID,
	}
	return u.list(ctx, filter, req.Page, req.Limit)
}

func (u *auditLogUsecase) GetMemberHistory(ctx context.Context, publicID string, page, limit int) (*dto.AuditLogListResponse, error) {
	member, err := u.memberRepo.FindByPublicID(ctx, u.db, memberid.Normalize(publicID))
	if err != nil {
		u.log.Warnf("Failed to find member: %+v", err)
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	return u.list(ctx, &entity.AuditLogFilter{EntityID: member.MemberID}, page, limit)
}

func (u *auditLogUsecase) list(ctx context.Context, filter *entity.AuditLogFilter, page, limit int) (*dto.AuditLogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultAuditLogLimit
	}
	if limit > maxAuditLogLimit {
		limit = maxAuditLogLimit
	}

	logs, total, err := u.auditLogRepo.FindAll(ctx, u.db, filter, limit, (page-1)*limit)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Page:  page,
		Limit: limit,
		Total: total,
	}, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find audit log: %+v", err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}
