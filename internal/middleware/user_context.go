// internal/middleware/user_context.go
package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth/v5"

	"github.com/flyMoon99/fysl/config"
	"github.com/flyMoon99/fysl/internal/pkg/response"
)

// GetUserIDFromContext возвращает user_id из контекста.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	if val := ctx.Value(config.UserIDKey); val != nil {
		if id, ok := val.(int64); ok {
			return id, true
		}
	}
	return 0, false
}

// GetUserRoleFromContext возвращает роль из контекста.
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	if val := ctx.Value(config.UserRoleKey); val != nil {
		if role, ok := val.(string); ok {
			return role, true
		}
	}
	return "", false
}

// AddUserToContext извлекает user_id и роль из JWT и кладёт в контекст.
func AddUserToContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, _ := jwtauth.FromContext(r.Context())
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}

			var userID int64
			if idStr, ok := claims["user_id"].(string); ok {
				if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
					userID = id
				}
			} else if id, ok := claims["user_id"].(float64); ok {
				userID = int64(id)
			}

			ctx := r.Context()
			if userID != 0 {
				ctx = context.WithValue(ctx, config.UserIDKey, userID)
			}
			if role, ok := claims["role"].(string); ok {
				ctx = context.WithValue(ctx, config.UserRoleKey, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly пропускает только администраторов.
func AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRoleFromContext(r.Context())
			if !ok {
				response.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			switch role {
			case "admin", "superadmin":
				// доступ разрешён
			default:
				response.RespondWithError(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
