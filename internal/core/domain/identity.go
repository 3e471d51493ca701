package domain

import (
	"slices"
	"time"
)

// SSOProvider tags identities created through a federated login.
type SSOProvider string

const (
	SSOGoogle    SSOProvider = "google"
	SSOMicrosoft SSOProvider = "microsoft"
	SSOOkta      SSOProvider = "okta"
	SSOAuth0     SSOProvider = "auth0"
	SSOSAML      SSOProvider = "saml"
)

// Identity models an authenticated principal.
type Identity struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	TenantID     string      `json:"tenantId"`
	Tier         Tier        `json:"tier"`
	Permissions  []string    `json:"permissions"`
	SSOProvider  SSOProvider `json:"ssoProvider,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	LastLogin    time.Time   `json:"lastLogin,omitempty"`
}

// HasPermission reports whether the identity holds p, directly or through "*".
func (i Identity) HasPermission(p string) bool {
	return slices.Contains(i.Permissions, PermissionAll) || slices.Contains(i.Permissions, p)
}

// BypassesRateLimit reports whether quota enforcement is skipped for the
// identity. Only an enterprise super admin qualifies.
func (i Identity) BypassesRateLimit() bool {
	return i.Role == RoleSuperAdmin && i.Tier == TierEnterprise
}

// RateLimitKey is the quota key for the identity: "<tenant>:<user>".
func (i Identity) RateLimitKey() string {
	return i.TenantID + ":" + i.ID
}
