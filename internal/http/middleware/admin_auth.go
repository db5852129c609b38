package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/dentaai-platform/internal/auth"
	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// SessionVerifier resolves a bearer token to a live admin session.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Session, error)
}

// AdminSession requires "Authorization: Bearer <token>" carrying a live
// session. The session and its username (as audit actor) go into the context.
func AdminSession(verifier SessionVerifier, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				respond.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			session, err := verifier.Verify(r.Context(), strings.TrimPrefix(header, "Bearer "))
			switch {
			case errors.Is(err, auth.ErrSessionInvalid):
				respond.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			case err != nil:
				logger.Error("session lookup failed", "error", err)
				respond.Error(w, respond.UnavailableMessage, http.StatusServiceUnavailable)
				return
			}
			ctx := auth.WithSession(r.Context(), session)
			ctx = compliance.WithActor(ctx, session.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
