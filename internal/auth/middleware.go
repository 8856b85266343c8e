package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskapi/internal/apperror"
	"github.com/redmonkez12/taskapi/internal/httputil"
	"github.com/redmonkez12/taskapi/internal/logging"
	"github.com/redmonkez12/taskapi/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const IdentityContextKey ContextKey = "identity"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID   uuid.UUID
	User *user.User
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// IdentityFromContext extracts the identity set by RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	return id, ok
}

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
	identities   IdentityResolver
}

func NewMiddleware(tokenService TokenService, identities IdentityResolver) *Middleware {
	return &Middleware{tokenService: tokenService, identities: identities}
}

// RequireAuth validates the bearer token and resolves the identity it names.
// Existence is re-checked on every request, so a deleted identity is
// rejected even while its token is still valid.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", apperror.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", apperror.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", apperror.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			logger.Debug("token rejected", "error", err.Error())
			httputil.RespondErrorWithCode(w, "invalid token", apperror.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid token", apperror.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		u, err := m.identities.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				logger.Warn("token subject no longer exists", "user_id", userID)
				httputil.RespondErrorWithCode(w, "invalid token", apperror.CodeInvalidToken, http.StatusUnauthorized)
				return
			}
			httputil.RespondAppError(w, r, err)
			return
		}

		ctx := WithIdentity(r.Context(), Identity{ID: u.ID, User: u})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively and exactly one token must follow it.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
