// Package middleware holds the admin API's JWT auth and rate-limit
// wrappers, adapted from the teacher's pkg/api/rest/middleware: generic
// HTTP middleware, not domain logic, kept close to the original shape.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig holds JWT authentication configuration for the admin API.
type AuthConfig struct {
	JWTSecret    string
	Enabled      bool
	PublicPaths  []string
	AdminPaths   []string
	RequireAdmin bool
}

// Claims represents the admin JWT's claims. IndexPrefix replaces the
// teacher's vector-namespace concept with an index-name prefix carried in
// the token; no middleware or admin handler reads it, so it does not
// restrict what the bearer sees.
type Claims struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
	IndexPrefix string   `json:"index_prefix,omitempty"`
	jwt.RegisteredClaims
}

type contextKey string

// UserContextKey is the context key holding *Claims after AuthMiddleware.
const UserContextKey contextKey = "user"

// AuthMiddleware validates a Bearer JWT on every request, except those
// matching config.PublicPaths. Requests to config.AdminPaths additionally
// require an "admin" role claim.
func AuthMiddleware(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			for _, path := range config.PublicPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSONError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(config.JWTSecret), nil
			})
			if err != nil {
				writeJSONError(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid {
				writeJSONError(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			isAdminPath := false
			for _, path := range config.AdminPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					isAdminPath = true
					break
				}
			}
			if isAdminPath && !hasRole(claims.Roles, "admin") {
				writeJSONError(w, "Admin privileges required", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaimsFromContext retrieves the authenticated request's claims.
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	return claims, ok
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// GenerateToken issues a signed admin JWT, used by operator tooling and
// tests rather than anything on the query path.
func GenerateToken(userID, username string, roles []string, indexPrefix, secret string) (string, error) {
	claims := &Claims{
		UserID:      userID,
		Username:    username,
		Roles:       roles,
		IndexPrefix: indexPrefix,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "geoknn",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"error": "%s", "status": %d}`, message, statusCode)
}
