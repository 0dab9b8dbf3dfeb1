package middleware

import (
	"context"
	"net/http"
	"strings"

	"medical-records/internal/infrastructure/cache"
	"medical-records/pkg/jwt"
	"medical-records/pkg/response"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
	RoleIDKey   contextKey = "role_id"
	TokenIDKey  contextKey = "token_id"
)

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	tokens     *cache.TokenStore
}

func NewAuthMiddleware(jwtService *jwt.JWTService, tokens *cache.TokenStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		tokens:     tokens,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		// Revoked tokens are absent from the store
		valid, err := m.tokens.Exists(r.Context(), cache.AccessTokenKind, claims.UserID, claims.TokenID)
		if err != nil {
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if !valid {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		ctx := ContextWithIdentity(r.Context(), claims.Identity())
		ctx = context.WithValue(ctx, TokenIDKey, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextWithIdentity stores the authenticated user in ctx.
func ContextWithIdentity(ctx context.Context, id jwt.Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id.UserID)
	ctx = context.WithValue(ctx, UsernameKey, id.Username)
	return context.WithValue(ctx, RoleIDKey, id.RoleID)
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUsernameFromContext extracts the username from context
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}

// GetRoleIDFromContext extracts role ID from context
func GetRoleIDFromContext(ctx context.Context) (int, bool) {
	roleID, ok := ctx.Value(RoleIDKey).(int)
	return roleID, ok
}

// IdentityFromContext returns the authenticated user, or the zero Identity
// for anonymous requests.
func IdentityFromContext(ctx context.Context) jwt.Identity {
	userID, _ := GetUserIDFromContext(ctx)
	username, _ := GetUsernameFromContext(ctx)
	roleID, _ := GetRoleIDFromContext(ctx)
	return jwt.Identity{UserID: userID, Username: username, RoleID: roleID}
}

// ActorFromContext returns the acting user's ID, or nil for anonymous
// requests.
func ActorFromContext(ctx context.Context) *uuid.UUID {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok || userID == uuid.Nil {
		return nil
	}
	return &userID
}
