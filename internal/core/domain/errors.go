package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrTenantNotFound     = errors.New("tenant not found")

	// ErrTokenMissing means no bearer credential was presented.
	ErrTokenMissing = errors.New("access token required")
	// ErrTokenInvalid covers every verification failure: bad signature,
	// wrong issuer or audience, expiry, wrong token type.
	ErrTokenInvalid = errors.New("invalid or expired token")

	ErrAuthRequired   = errors.New("authentication required")
	ErrTenantRequired = errors.New("tenant context required")

	ErrAPIKeyMissing = errors.New("api key required")
	ErrAPIKeyInvalid = errors.New("invalid api key format")

	ErrTooManyAttempts = errors.New("too many attempts")
)

// RoleError is returned when an identity's role is outside the allowed set.
type RoleError struct {
	Required []Role
	Current  Role
}

func (e *RoleError) Error() string {
	names := make([]string, len(e.Required))
	for i, r := range e.Required {
		names[i] = string(r)
	}
	return fmt.Sprintf("insufficient permissions: role %q not in [%s]", e.Current, strings.Join(names, ", "))
}

// PermissionError is returned when an identity lacks a named permission.
type PermissionError struct {
	Required string
	Current  []string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("insufficient permissions: missing %q", e.Required)
}

// TierError is returned when an identity's tier ranks below the required one.
type TierError struct {
	Current  Tier
	Required Tier
}

func (e *TierError) Error() string {
	return fmt.Sprintf("upgrade required: tier %q below %q", e.Current, e.Required)
}

// RateLimitError is returned when a quota key has exhausted its window.
type RateLimitError struct {
	Tier       Tier
	Policy     RateLimitPolicy
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s on tier %q", e.Policy.Requests, e.Policy.Window, e.Tier)
}
