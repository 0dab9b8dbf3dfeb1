package middleware

import (
	"net/http"

	"medical-records/internal/domain/entity"
	"medical-records/pkg/response"
)

// RequireRole creates a middleware that checks if the user has any of the required roles
// Role is read from context (set by AuthMiddleware from JWT claims)
func RequireRole(allowedRoleIDs ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roleID, ok := GetRoleIDFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}

			allowed := false
			for _, allowedRoleID := range allowedRoleIDs {
				if roleID == allowedRoleID {
					allowed = true
					break
				}
			}

			if !allowed {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience middleware for admin-only endpoints
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleIDAdmin)(next)
}

// RequireMemberCreator allows roles that may add members
func RequireMemberCreator(next http.Handler) http.Handler {
	return RequireRole(entity.MemberCreatorRoles...)(next)
}

// RequireMemberEditor allows roles that may edit members and upload files
func RequireMemberEditor(next http.Handler) http.Handler {
	return RequireRole(entity.MemberEditorRoles...)(next)
}

// RequireMemberDeleter allows roles that may delete members
func RequireMemberDeleter(next http.Handler) http.Handler {
	return RequireRole(entity.MemberDeleterRoles...)(next)
}
