package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"

	"thr-trivia/internal/models"
	"thr-trivia/pkg/httpx"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

// UserID pulls the authenticated user's id out of the request context.
func UserID(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok
}

func Role(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpx.Error(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
				httpx.Error(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			token, err := jwt.ParseWithClaims(bearerToken[1], &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			claims, ok := token.Claims.(*jwt.MapClaims)
			if !ok || !token.Valid {
				httpx.Error(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			userID, ok := (*claims)["user_id"].(float64)
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "Invalid user ID in token")
				return
			}
			role, _ := (*claims)["role"].(string)

			ctx := context.WithValue(r.Context(), userIDKey, uint(userID))
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards admin-only routes. Runs after JWTMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Role(r.Context()) != models.RoleAdmin {
			httpx.Error(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
