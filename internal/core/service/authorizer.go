package service

import (
	"slices"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// The checks below are the gate predicates. Each takes the identity attached
// by authentication (nil when absent) and returns nil or a terminal error.

// CheckRole passes when the identity's role is in allowed.
func CheckRole(id *domain.Identity, allowed ...domain.Role) error {
	if id == nil {
		return domain.ErrAuthRequired
	}
	if !slices.Contains(allowed, id.Role) {
		return &domain.RoleError{Required: slices.Clone(allowed), Current: id.Role}
	}
	return nil
}

// CheckTenant passes when the identity carries a tenant id and returns it.
func CheckTenant(id *domain.Identity) (string, error) {
	if id == nil {
		return "", domain.ErrAuthRequired
	}
	if id.TenantID == "" {
		return "", domain.ErrTenantRequired
	}
	return id.TenantID, nil
}

// CheckTier passes when the identity's tier ranks at or above min.
func CheckTier(id *domain.Identity, min domain.Tier) error {
	if id == nil {
		return domain.ErrAuthRequired
	}
	if !id.Tier.AtLeast(min) {
		return &domain.TierError{Current: id.Tier, Required: min}
	}
	return nil
}

// CheckPermission passes when the identity holds perm or the wildcard.
func CheckPermission(id *domain.Identity, perm string) error {
	if id == nil {
		return domain.ErrAuthRequired
	}
	if !id.HasPermission(perm) {
		return &domain.PermissionError{Required: perm, Current: slices.Clone(id.Permissions)}
	}
	return nil
}
