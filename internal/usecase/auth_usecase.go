package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"medical-records/config"
	"medical-records/internal/converter"
	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/entity"
	"medical-records/internal/domain/repository"
	"medical-records/internal/infrastructure/cache"
	"medical-records/internal/service"
	"medical-records/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrUserInactive          = errors.New("account is disabled")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrTokenRevoked          = errors.New("token has been revoked")
	ErrUserNotFound          = errors.New("user not found")
	ErrRoleNotFound          = errors.New("role not found")
	ErrCannotToggleSelf      = errors.New("you cannot change your own account status")
)

type AuthUsecase interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshToken string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	ListUsers(ctx context.Context) (*dto.UserListResponse, error)
	CreateUser(ctx context.Context, actor jwt.Identity, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	ToggleUserActive(ctx context.Context, actor jwt.Identity, userID uuid.UUID) (*dto.UserResponse, error)
	// SeedDefaults inserts the fixed roles and, when a password is
	// configured and no admin exists yet, the default admin account.
	SeedDefaults(ctx context.Context) error
}

type authUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	jwtService   *jwt.JWTService
	tokens       *cache.TokenStore
	auditService service.AuditService
	admin        config.AdminConfig
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	jwtService *jwt.JWTService,
	tokens *cache.TokenStore,
	auditService service.AuditService,
	admin config.AdminConfig,
) AuthUsecase {
	return &authUsecase{
		db:           db,
		log:          log,
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		jwtService:   jwtService,
		tokens:       tokens,
		auditService: auditService,
		admin:        admin,
	}
}

func (u *authUsecase) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	user, err := u.createUser(ctx, req.Username, req.Email, req.Password, entity.RoleIDUser)
	if err != nil {
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, u.db, &user.ID, entity.AuditActionUserRegister, "user", user.ID.String(), converter.UserToResponse(user))

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) CreateUser(ctx context.Context, actor jwt.Identity, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	roleID, ok := entity.RoleIDByName(req.Role)
	if !ok {
		return nil, ErrRoleNotFound
	}

	user, err := u.createUser(ctx, req.Username, req.Email, req.Password, roleID)
	if err != nil {
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, u.db, actorID(actor), entity.AuditActionUserCreate, "user", user.ID.String(), converter.UserToResponse(user))

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) createUser(ctx context.Context, username, email, password string, roleID int) (*entity.User, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := u.userRepo.FindByUsername(ctx, tx, username)
	if err != nil {
		u.log.Warnf("Failed to find user by username: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameAlreadyExists
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		RoleID:   roleID,
		IsActive: true,
	}

	if err := u.userRepo.Create(ctx, tx, user); err != nil {
		if isDuplicateKeyError(err, entity.ConstraintUserUsername) {
			return nil, ErrUsernameAlreadyExists
		}
		if isDuplicateKeyError(err, entity.ConstraintUserEmail) {
			return nil, ErrEmailAlreadyExists
		}
		if isForeignKeyError(err, "role") {
			return nil, ErrRoleNotFound
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return user, nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByUsername(ctx, u.db, strings.TrimSpace(req.Username))
	if err != nil {
		u.log.Warnf("Failed to find user by username: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	now := time.Now()
	user.LastLogin = &now
	if err := u.userRepo.Update(ctx, u.db, user); err != nil {
		u.log.Warnf("Failed to update last login: %+v", err)
		return nil, err
	}

	tokens, err := u.issueTokens(ctx, jwt.Identity{UserID: user.ID, Username: user.Username, RoleID: user.RoleID})
	if err != nil {
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, u.db, &user.ID, entity.AuditActionUserLogin, "user", user.ID.String(), nil)

	return tokens, nil
}

// issueTokens signs a token pair and registers both IDs in the token store.
func (u *authUsecase) issueTokens(ctx context.Context, id jwt.Identity) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(id)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(id)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.tokens.Save(ctx, cache.AccessTokenKind, id.UserID, accessTokenID, u.jwtService.GetAccessExpiry()); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}

	if err := u.tokens.Save(ctx, cache.RefreshTokenKind, id.UserID, refreshTokenID, u.jwtService.GetRefreshExpiry()); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// Logout revokes the current access token and, when given, the refresh
// token it was issued with.
func (u *authUsecase) Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshToken string) error {
	if err := u.tokens.Revoke(ctx, cache.AccessTokenKind, userID, accessTokenID); err != nil {
		u.log.Warnf("Failed to delete access token: %+v", err)
		return err
	}

	if refreshToken != "" {
		claims, err := u.jwtService.ValidateToken(refreshToken)
		if err == nil && claims.TokenType == jwt.RefreshToken && claims.UserID == userID {
			if err := u.tokens.Revoke(ctx, cache.RefreshTokenKind, userID, claims.TokenID); err != nil {
				u.log.Warnf("Failed to delete refresh token: %+v", err)
				return err
			}
		}
	}

	_ = u.auditService.LogCreate(ctx, u.db, &userID, entity.AuditActionUserLogout, "user", userID.String(), nil)

	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	// Validate refresh token
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	exists, err := u.tokens.Exists(ctx, cache.RefreshTokenKind, claims.UserID, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to check refresh token in Redis: %+v", err)
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	// Role or status may have changed since the token was issued
	user, err := u.userRepo.FindByID(ctx, u.db, claims.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Delete old refresh token
	if err := u.tokens.Revoke(ctx, cache.RefreshTokenKind, claims.UserID, claims.TokenID); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	return u.issueTokens(ctx, jwt.Identity{UserID: user.ID, Username: user.Username, RoleID: user.RoleID})
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) ListUsers(ctx context.Context) (*dto.UserListResponse, error) {
	users, err := u.userRepo.FindAll(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to find all users: %+v", err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users: converter.UsersToResponses(users),
		Total: len(users),
	}, nil
}

func (u *authUsecase) ToggleUserActive(ctx context.Context, actor jwt.Identity, userID uuid.UUID) (*dto.UserResponse, error) {
	if actor.UserID == userID {
		return nil, ErrCannotToggleSelf
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user, err := u.userRepo.FindByID(ctx, tx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.IsActive = !user.IsActive
	if err := u.userRepo.Update(ctx, tx, user); err != nil {
		u.log.Warnf("Failed to update user: %+v", err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	if !user.IsActive {
		if err := u.tokens.RevokeUser(ctx, user.ID); err != nil {
			u.log.Warnf("Failed to revoke tokens of deactivated user: %+v", err)
			return nil, err
		}
	}

	_ = u.auditService.LogUpdate(ctx, u.db, actorID(actor), entity.AuditActionUserToggle, "user", user.ID.String(), !user.IsActive, user.IsActive)

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) SeedDefaults(ctx context.Context) error {
	if err := u.roleRepo.EnsureDefaults(ctx, u.db, entity.DefaultRoles); err != nil {
		u.log.Warnf("Failed to seed roles: %+v", err)
		return err
	}

	if u.admin.Password == "" {
		return nil
	}

	exists, err := u.userRepo.ExistsWithRole(ctx, u.db, entity.RoleIDAdmin)
	if err != nil {
		u.log.Warnf("Failed to check admin user: %+v", err)
		return err
	}
	if exists {
		return nil
	}

	user, err := u.createUser(ctx, u.admin.Username, u.admin.Email, u.admin.Password, entity.RoleIDAdmin)
	if err != nil {
		if errors.Is(err, ErrUsernameAlreadyExists) || errors.Is(err, ErrEmailAlreadyExists) {
			u.log.Warnf("Default admin not created: %v", err)
			return nil
		}
		return err
	}

	u.log.WithField("username", user.Username).Info("Created default admin user")
	return nil
}
