package usecase

import (
	"context"

	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/repository"
	"medical-records/internal/infrastructure/database"
	"medical-records/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SystemUsecase interface {
	Status(ctx context.Context) (*dto.SystemStatusResponse, error)
	// InitDatabase creates missing tables and reseeds roles and the
	// default admin.
	InitDatabase(ctx context.Context) (*dto.SystemStatusResponse, error)
}

type systemUsecase struct {
	db          *gorm.DB
	log         *logrus.Logger
	driver      string
	schema      database.SchemaInitializer
	memberRepo  repository.MemberRepository
	userRepo    repository.UserRepository
	storage     service.StorageGateway
	authUsecase AuthUsecase
}

func NewSystemUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	driver string,
	schema database.SchemaInitializer,
	memberRepo repository.MemberRepository,
	userRepo repository.UserRepository,
	storage service.StorageGateway,
	authUsecase AuthUsecase,
) SystemUsecase {
	return &systemUsecase{
		db:          db,
		log:         log,
		driver:      driver,
		schema:      schema,
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		storage:     storage,
		authUsecase: authUsecase,
	}
}

func (u *systemUsecase) Status(ctx context.Context) (*dto.SystemStatusResponse, error) {
	tables, err := u.schema.Tables(ctx)
	if err != nil {
		u.log.Warnf("Failed to list tables: %+v", err)
		return nil, err
	}

	members, err := u.memberRepo.Count(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to count members: %+v", err)
		return nil, err
	}

	users, err := u.userRepo.Count(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to count users: %+v", err)
		return nil, err
	}

	return &dto.SystemStatusResponse{
		Database:      u.driver,
		Tables:        tables,
		MemberCount:   members,
		UserCount:     users,
		RemoteStorage: u.storage.RemoteEnabled(),
		UploadDir:     u.storage.LocalDir(),
	}, nil
}

func (u *systemUsecase) InitDatabase(ctx context.Context) (*dto.SystemStatusResponse, error) {
	if err := u.schema.EnsureSchema(ctx); err != nil {
		u.log.Warnf("Failed to initialize schema: %+v", err)
		return nil, err
	}

	if err := u.authUsecase.SeedDefaults(ctx); err != nil {
		return nil, err
	}

	u.log.Info("Database initialized")
	return u.Status(ctx)
}
