package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mkrupp/bookswap/internal/domain"
	context_ "github.com/mkrupp/bookswap/internal/infra/context"
	"github.com/mkrupp/bookswap/internal/infra/logging"
)

// Messages returned by AuthorizingMiddleware.
const (
	TokenRequiredMessage = "Token required."
	UnauthorizedMessage  = "Unauthorized due to lack of permission or an expired token."
)

// TokenVerifier resolves a bearer token to its verified claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (domain.AuthToken, error)
}

// AuthorizingMiddleware creates middleware that validates bearer tokens.
// Requests without a token in the Authorization header, or with a token the
// verifier rejects as missing, invalid or expired, get a JSON 401. Any other
// verifier error is answered with a 500. On success the user ID is added to
// the request context.
func AuthorizingMiddleware(
	next http.Handler,
	verifier TokenVerifier,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			log.WarnContext(r.Context(), "no token provided")
			_ = WriteError(w, http.StatusUnauthorized, TokenRequiredMessage)

			return
		}

		claims, err := verifier.VerifyToken(r.Context(), token)
		if err != nil {
			if !isTokenRejection(err) {
				log.ErrorContext(r.Context(), "verify token failed", "error", err)
				_ = WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))

				return
			}

			log.WarnContext(r.Context(), "verify token failed", "error", err)
			_ = WriteError(w, http.StatusUnauthorized, UnauthorizedMessage)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithUserID(r.Context(), claims.UserID)))
	})
}

func isTokenRejection(err error) bool {
	return errors.Is(err, domain.ErrNoAuthToken) ||
		errors.Is(err, domain.ErrInvalidAuthToken) ||
		errors.Is(err, domain.ErrExpiredAuthToken)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// Reports false if the header is missing or empty.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found && strings.EqualFold(header, "Bearer") {
		return "", false
	}

	if !found || !strings.EqualFold(scheme, "Bearer") {
		// a bare token is passed on and rejected by the verifier
		return header, true
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
