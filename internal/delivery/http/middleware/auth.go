package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	sessionIDKey contextKey = "sessionID"
)

// SetUserID returns a context with the user ID set. Used by auth middleware.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// SetSessionID returns a context carrying the session the request's token belongs to.
func SetSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext returns the session ID set by RequireAuth.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

func bearerToken(r *http.Request) (string, string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", "invalid authorization format"
	}
	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", "missing token"
	}
	return token, ""
}

// RequireAuth returns a wrapper that validates the Bearer token, checks that its
// session is still live, and sets the user and session IDs in the request context.
// If any check fails, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, sessions domain.SessionStore, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, problem)
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			live, err := sessions.Exists(r.Context(), claims.SessionID)
			if err != nil {
				logger.ErrorContext(r.Context(), "session lookup failed", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeServiceUnavailable, "session store unavailable")
				return
			}
			if !live {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "session signed out or expired")
				return
			}
			ctx := SetUserID(r.Context(), claims.UserID)
			ctx = SetSessionID(ctx, claims.SessionID)
			next(w, r.WithContext(ctx))
		}
	}
}

// AdminChecker reports whether a user's profile carries the admin flag.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin must run inside RequireAuth. It reads the admin flag from the stored
// profile on every request, so revoking the flag takes effect immediately.
func RequireAdmin(checker AdminChecker, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
				return
			}
			admin, err := checker.IsAdmin(r.Context(), userID)
			if err != nil {
				logger.ErrorContext(r.Context(), "admin check failed", "path", r.URL.Path, "user_id", userID, "err", err)
				h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "admin check failed")
				return
			}
			if !admin {
				h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, domain.ErrNotAdmin.Error())
				return
			}
			next(w, r)
		}
	}
}
