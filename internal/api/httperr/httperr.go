// Package httperr renders domain errors as the JSON bodies clients rely on.
// Both the gate middleware and the global error handler go through Resolve so
// a denial looks the same wherever it is produced.
package httperr

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// HeaderRetryAfter tells a rate-limited client how many seconds to wait.
const HeaderRetryAfter = "Retry-After"

const (
	CodeTokenMissing = "TOKEN_MISSING"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeAuthRequired = "AUTH_REQUIRED"
)

// ErrorResponse is the canonical error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RoleDeniedResponse is returned with 403 when the caller's role is not allowed.
type RoleDeniedResponse struct {
	Error    string   `json:"error"`
	Required []string `json:"required"`
	Current  string   `json:"current"`
}

// PermissionDeniedResponse is returned with 403 when a named permission is missing.
type PermissionDeniedResponse struct {
	Error    string `json:"error"`
	Required string `json:"required"`
}

// UpgradeRequiredResponse is returned with 402 when the tier is too low.
type UpgradeRequiredResponse struct {
	Error        string `json:"error"`
	CurrentTier  string `json:"currentTier"`
	RequiredTier string `json:"requiredTier"`
	UpgradeURL   string `json:"upgradeUrl"`
}

// RateLimitedResponse is returned with 429 when the quota is exhausted.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	Tier       string `json:"tier"`
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	UpgradeURL string `json:"upgradeUrl"`
}

// Resolve maps a known domain error to its status and body. ok is false for
// errors that have no client-facing rendering.
func Resolve(err error) (status int, body any, ok bool) {
	var (
		roleErr  *domain.RoleError
		permErr  *domain.PermissionError
		tierErr  *domain.TierError
		limitErr *domain.RateLimitError
	)

	switch {
	case errors.As(err, &roleErr):
		required := make([]string, len(roleErr.Required))
		for i, r := range roleErr.Required {
			required[i] = string(r)
		}
		return http.StatusForbidden, RoleDeniedResponse{
			Error:    "Insufficient permissions",
			Required: required,
			Current:  string(roleErr.Current),
		}, true
	case errors.As(err, &permErr):
		return http.StatusForbidden, PermissionDeniedResponse{
			Error:    "Insufficient permissions",
			Required: permErr.Required,
		}, true
	case errors.As(err, &tierErr):
		return http.StatusPaymentRequired, UpgradeRequiredResponse{
			Error:        "Upgrade required",
			CurrentTier:  string(tierErr.Current),
			RequiredTier: string(tierErr.Required),
			UpgradeURL:   domain.UpgradeURL,
		}, true
	case errors.As(err, &limitErr):
		return http.StatusTooManyRequests, RateLimitedResponse{
			Error:      "Rate limit exceeded",
			Tier:       string(limitErr.Tier),
			Limit:      limitErr.Policy.Requests,
			Window:     limitErr.Policy.WindowLabel(),
			UpgradeURL: domain.UpgradeURL,
		}, true

	case errors.Is(err, domain.ErrTokenMissing):
		return http.StatusUnauthorized, ErrorResponse{Error: "Access token required", Code: CodeTokenMissing}, true
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusForbidden, ErrorResponse{Error: "Invalid or expired token", Code: CodeTokenInvalid}, true
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Code: CodeAuthRequired}, true
	case errors.Is(err, domain.ErrTenantRequired):
		return http.StatusForbidden, ErrorResponse{Error: "Tenant context required"}, true
	case errors.Is(err, domain.ErrAPIKeyMissing):
		return http.StatusUnauthorized, ErrorResponse{Error: "API key required"}, true
	case errors.Is(err, domain.ErrAPIKeyInvalid):
		return http.StatusUnauthorized, ErrorResponse{Error: "Invalid API key format"}, true
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, ErrorResponse{Error: "Too many attempts"}, true

	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"}, true
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, ErrorResponse{Error: "User already exists"}, true
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "User not found"}, true
	case errors.Is(err, domain.ErrTenantNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Tenant not found"}, true
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}, true
	}
	return 0, nil, false
}

// Write renders err if it is known. Unknown errors are returned unchanged so
// the global error handler can log them.
func Write(c echo.Context, err error) error {
	status, body, ok := Resolve(err)
	if !ok {
		return err
	}
	SetHeaders(c, err)
	return c.JSON(status, body)
}

// SetHeaders adds the response headers that accompany err, if any.
func SetHeaders(c echo.Context, err error) {
	var limitErr *domain.RateLimitError
	if errors.As(err, &limitErr) && limitErr.RetryAfter > 0 {
		secs := int64(math.Ceil(limitErr.RetryAfter.Seconds()))
		c.Response().Header().Set(HeaderRetryAfter, strconv.FormatInt(secs, 10))
	}
}
