package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/api/httperr"
	"github.com/bizcard/enterprise-auth/internal/api/metrics"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/service"
)

// AccessTokenVerifier is satisfied by *service.TokenService.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*service.AccessClaims, error)
}

// Authenticate requires a valid bearer access token and attaches the decoded
// identity to the request context.
func Authenticate(verifier AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return httperr.Write(c, domain.ErrTokenMissing)
			}

			claims, err := verifier.VerifyAccessToken(token)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return httperr.Write(c, domain.ErrTokenInvalid)
			}

			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
			replaceContext(c, WithIdentity(c.Request().Context(), claims.Identity()))
			return next(c)
		}
	}
}

// OptionalAuthenticate attaches an identity when a valid bearer token is
// present and otherwise lets the request through anonymously.
func OptionalAuthenticate(verifier AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}
			claims, err := verifier.VerifyAccessToken(token)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return next(c)
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
			replaceContext(c, WithIdentity(c.Request().Context(), claims.Identity()))
			return next(c)
		}
	}
}

// bearerToken extracts the credential from "Bearer <token>". Any other
// scheme counts as no token.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
