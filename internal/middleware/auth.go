package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a private type for context keys to avoid collisions with
// other packages storing values on the same context.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller extracted from a bearer token.
// Token issuance lives in the surrounding application; this middleware only
// verifies and extracts, so the core never reads ambient auth state.
type Identity struct {
	DriverID uuid.UUID
	Role     string
}

// Supervisory roles allowed to read the fleet-wide summary.
const (
	RoleDriver     = "driver"
	RoleAdmin      = "admin"
	RoleOperations = "operations"
	RoleSales      = "sales"
	RoleServicing  = "client_servicing"
)

// NewAuthenticator returns a middleware that validates the Authorization
// bearer token (HMAC-signed JWT) and stores the caller's Identity in the
// request context. Requests without a valid token receive 401.
func NewAuthenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}

			ident, err := parseToken(raw, secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSupervisor returns a middleware rejecting callers whose role is not
// one of the supervisory roles. Wire it in front of fleet-wide routes.
func RequireSupervisor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}
		switch ident.Role {
		case RoleAdmin, RoleOperations, RoleSales, RoleServicing:
			next.ServeHTTP(w, r)
		default:
			http.Error(w, "insufficient permissions", http.StatusForbidden)
		}
	})
}

// IdentityFromContext extracts the caller identity stored by NewAuthenticator.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}

// DriverIDFromContext extracts just the driver id, the shape handlers consume.
func DriverIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	ident, ok := IdentityFromContext(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return ident.DriverID, true
}

// IssueToken signs a token for the given identity. Used by tests and by the
// surrounding application's login flow.
func IssueToken(secret []byte, ident Identity, claims jwt.MapClaims) (string, error) {
	if claims == nil {
		claims = jwt.MapClaims{}
	}
	claims["driver_id"] = ident.DriverID.String()
	claims["role"] = ident.Role
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parseToken validates the signature and pulls the identity claims out.
func parseToken(raw string, secret []byte) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid claims")
	}

	rawID, _ := claims["driver_id"].(string)
	driverID, err := uuid.Parse(rawID)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid driver_id claim: %w", err)
	}
	role, _ := claims["role"].(string)

	return Identity{DriverID: driverID, Role: role}, nil
}
