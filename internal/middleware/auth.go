package middleware

import (
	"context"
	"net/http"
	"strings"

	"gigster_auth/internal/model"
	"gigster_auth/internal/webutil"

	"github.com/google/uuid"
)

// SessionParser verifies a session token and returns its claims.
type SessionParser interface {
	Parse(tokenString string) (*model.SessionClaims, error)
}

// SessionAuthMiddleware validates the session JWT from the Authorization
// header ("Bearer <token>") or, failing that, from the session cookie.
func SessionAuthMiddleware(sessions SessionParser, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			tokenString, err := sessionTokenFromRequest(r, cookieName)
			if err != nil {
				logger.Warn("Session auth failed", "error", err)
				webutil.HandleError(w, logger, err)
				return
			}

			claims, err := sessions.Parse(tokenString)
			if err != nil {
				logger.Warn("Session auth failed: invalid token", "error", err)
				webutil.HandleError(w, logger, model.NewAppError("INVALID_SESSION", "Session is invalid or has expired.", "", model.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), model.UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionTokenFromRequest(r *http.Request, cookieName string) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", model.NewAppError("UNAUTHORIZED", "Authorization header must be 'Bearer <token>'.", "", model.ErrUnauthorized)
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", model.NewAppError("UNAUTHORIZED", "You are not authenticated.", "", model.ErrUnauthorized)
}

// GetUserIDFromContext returns the user id set by SessionAuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	value, ok := ctx.Value(model.UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Could not read the user from the request context.", "", model.ErrInternalServer)
	}
	return value, nil
}
