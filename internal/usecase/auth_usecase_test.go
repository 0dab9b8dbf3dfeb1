package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"medical-records/config"
	"medical-records/internal/delivery/dto"
	"medical-records/internal/domain/entity"
	"medical-records/internal/infrastructure/cache"
	"medical-records/internal/repository"
	"medical-records/internal/service"
	"medical-records/internal/testutil"
	"medical-records/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type authFixture struct {
	db     *gorm.DB
	auth   AuthUsecase
	jwt    *jwt.JWTService
	tokens *cache.TokenStore
}

func newAuthFixture(t *testing.T, admin config.AdminConfig) *authFixture {
	t.Helper()

	db := testutil.NewDB(t)
	log := testutil.Logger()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	tokens := cache.NewTokenStore(client)
	audit := service.NewAuditService(log, repository.NewAuditLogRepository())

	auth := NewAuthUsecase(db, log, repository.NewUserRepository(), repository.NewRoleRepository(), jwtService, tokens, audit, admin)
	if err := auth.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}

	return &authFixture{db: db, auth: auth, jwt: jwtService, tokens: tokens}
}

func (f *authFixture) register(t *testing.T, username string) *dto.UserResponse {
	t.Helper()

	user, err := f.auth.Register(context.Background(), &dto.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return user
}

func (f *authFixture) login(t *testing.T, username string) *dto.TokenResponse {
	t.Helper()

	tokens, err := f.auth.Login(context.Background(), &dto.LoginRequest{Username: username, Password: "secret123"})
	if err != nil {
		t.Fatalf("Login(%s): %v", username, err)
	}
	return tokens
}

func TestRegister_AssignsUserRole(t *testing.T) {
	f := newAuthFixture(t, config.AdminConfig{})

	user := f.register(t, "alice")
	if user.Role != entity.RoleUser {
		t.Errorf("role = %q, want %q", user.Role, entity.RoleUser)
	}
	if !user.IsActive {
		t.Error("new user should be active")
	}

	_, err := f.auth.Register(context.Background(), &dto.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "secret123"})
	if !errors.Is(err, ErrUsernameAlreadyExists) {
		t.Errorf("second Register = %v, want ErrUsernameAlreadyExists", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, config.AdminConfig{})
	f.register(t, "alice")

	_, err := f.auth.Register(context.Background(), &dto.RegisterRequest{Username: "bob", Email: "Alice@example.com", Password: "secret123"})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Errorf("Register(bob, alice's email) = %v, want ErrEmailAlreadyExists", err)
	}

	var n int64
	if err := f.db.Model(&entity.User{}).Where("username = ?", "bob").Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("bob rows = %d, want 0", n)
	}
}

func TestLogin_RefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t, config.AdminConfig{})
	f.register(t, "alice")

	if _, err := f.auth.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) = %v, want ErrInvalidCredentials", err)
	}
	if _, err := f.auth.Login(context.Background(), &dto.LoginRequest{Username: "nobody", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(unknown user) = %v, want ErrInvalidCredentials", err)
	}

	issued := f.login(t, "alice")
	if issued.AccessToken == "" || issued.RefreshToken == "" {
		t.Fatalf("tokens = %+v", issued)
	}

	refreshed, err := f.auth.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: issued.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if refreshed.RefreshToken == issued.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	if _, err := f.auth.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: issued.RefreshToken}); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("reused refresh token = %v, want ErrTokenRevoked", err)
	}
	if _, err := f.auth.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: refreshed.AccessToken}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token as refresh = %v, want ErrInvalidToken", err)
	}
}

func TestLogout_RevokesTokens(t *testing.T) {
	f := newAuthFixture(t, config.AdminConfig{})
	user := f.register(t, "alice")
	issued := f.login(t, "alice")

	claims, err := f.jwt.ValidateToken(issued.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if err := f.auth.Logout(context.Background(), user.ID, claims.TokenID, issued.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	ok, err := f.tokens.Exists(context.Background(), cache.AccessTokenKind, user.ID, claims.TokenID)
	if err != nil || ok {
		t.Errorf("access token Exists = %v, %v; want false", ok, err)
	}
	if _, err := f.auth.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: issued.RefreshToken}); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("refresh after logout = %v, want ErrTokenRevoked", err)
	}
}

func TestToggleUserActive(t *testing.T) {
	f := newAuthFixture(t, config.AdminConfig{})
	admin := seedUser(t, f.db, "root", entity.RoleIDAdmin)
	user := f.register(t, "alice")
	issued := f.login(t, "alice")

	if _, err := f.auth.ToggleUserActive(context.Background(), admin, admin.UserID); !errors.Is(err, ErrCannotToggleSelf) {
		t.Errorf("toggle self = %v, want ErrCannotToggleSelf", err)
	}

	toggled, err := f.auth.ToggleUserActive(context.Background(), admin, user.ID)
	if err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("user should be inactive after the first toggle")
	}

	claims, _ := f.jwt.ValidateToken(issued.AccessToken)
	if ok, _ := f.tokens.Exists(context.Background(), cache.AccessTokenKind, user.ID, claims.TokenID); ok {
		t.Error("access token survived deactivation")
	}

	if _, err := f.auth.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "secret123"}); !errors.Is(err, ErrUserInactive) {
		t.Errorf("Login(inactive) = %v, want ErrUserInactive", err)
	}

	toggled, err = f.auth.ToggleUserActive(context.Background(), admin, user.ID)
	if err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	if !toggled.IsActive {
		t.Error("user should be active after the second toggle")
	}
	f.login(t, "alice")
}

func TestCreateUser_RoleFromName(t *testing.T) {
	f := newAuthFixture(t, config.AdminConfig{})
	admin := seedUser(t, f.db, "root", entity.RoleIDAdmin)

	created, err := f.auth.CreateUser(context.Background(), admin, &dto.CreateUserRequest{
		Username: "nurse1",
		Email:    "nurse1@example.com",
		Password: "secret123",
		Role:     entity.RoleNurse,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.Role != entity.RoleNurse {
		t.Errorf("role = %q, want %q", created.Role, entity.RoleNurse)
	}

	_, err = f.auth.CreateUser(context.Background(), admin, &dto.CreateUserRequest{Username: "x1", Email: "x1@example.com", Password: "secret123", Role: "janitor"})
	if !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("CreateUser(unknown role) = %v, want ErrRoleNotFound", err)
	}

	list, err := f.auth.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if list.Total != 2 {
		t.Errorf("total = %d, want 2", list.Total)
	}
}

func TestSeedDefaults_CreatesAdminOnce(t *testing.T) {
	admin := config.AdminConfig{Username: "admin", Email: "admin@example.com", Password: "secret123"}
	f := newAuthFixture(t, admin)

	if err := f.auth.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("second SeedDefaults: %v", err)
	}

	if n := countRows(t, f.db, &entity.Role{}); n != int64(len(entity.DefaultRoles)) {
		t.Errorf("roles = %d, want %d", n, len(entity.DefaultRoles))
	}
	var admins int64
	if err := f.db.Model(&entity.User{}).Where("role_id = ?", entity.RoleIDAdmin).Count(&admins).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if admins != 1 {
		t.Errorf("admins = %d, want 1", admins)
	}

	f.login(t, "admin")
}

func TestSeedDefaults_NoPasswordNoAdmin(t *testing.T) {
	f := newAuthFixture(t, config.AdminConfig{Username: "admin", Email: "admin@example.com"})

	if n := countRows(t, f.db, &entity.User{}); n != 0 {
		t.Errorf("users = %d, want 0", n)
	}
}
