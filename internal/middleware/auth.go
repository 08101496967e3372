package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// AccessTokenCookie is the cookie carrying the access token. The cookie takes
// precedence over the Authorization header.
const AccessTokenCookie = "accessToken"

// TokenVerifier validates an access token and returns the embedded identity.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.Identity, error)
}

// UserLoader resolves a user record by id.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// ErrorResponder converts a domain error into the standard error envelope.
type ErrorResponder func(ctx context.Context, w http.ResponseWriter, err error)

// Authenticator is the session middleware: it resolves the caller's identity
// from an access token and attaches it to the request context, rejecting the
// request before any handler runs otherwise.
type Authenticator struct {
	Tokens  TokenVerifier
	Users   UserLoader
	Respond ErrorResponder
}

// Require wraps next so it only runs for authenticated requests.
func (a Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		token := bearerToken(r)
		if token == "" {
			a.Respond(ctx, w, apperrors.Unauthorized("please log in to access this resource"))
			return
		}

		identity, err := a.Tokens.VerifyAccess(token)
		if err != nil {
			// Uniform 401 regardless of the verification failure.
			a.Respond(ctx, w, apperrors.Unauthorized("invalid access token"))
			return
		}

		user, err := a.Users.FindByID(ctx, identity.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				a.Respond(ctx, w, apperrors.NotFound("no user found for this token"))
				return
			}
			logger.Error("session user lookup failed", "userId", identity.ID, "error", err)
			a.Respond(ctx, w, apperrors.Internal(err))
			return
		}

		resolved := auth.Identity{
			ID:       user.ID,
			UserName: user.UserName,
			Email:    user.Email,
			FullName: user.FullName,
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, resolved)))
	})
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
