package domain

import (
	"fmt"
	"time"
)

// Tier is the subscription level of a tenant.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierBusiness   Tier = "business"
	TierEnterprise Tier = "enterprise"
)

// UpgradeURL is the call-to-action returned with every tier or quota denial.
const UpgradeURL = "/pricing"

// Tiers lists every known tier in ascending order.
var Tiers = []Tier{TierFree, TierPro, TierBusiness, TierEnterprise}

// ParseTier converts a raw string into a Tier. Unknown values are rejected.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, s)
	}
	return t, nil
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierBusiness, TierEnterprise:
		return true
	}
	return false
}

func (t Tier) String() string { return string(t) }

// TierRank orders tiers for "at least tier X" comparisons.
// Unknown tiers rank as free.
func TierRank(t Tier) int {
	switch t {
	case TierFree:
		return 0
	case TierPro:
		return 1
	case TierBusiness:
		return 2
	case TierEnterprise:
		return 3
	}
	return 0
}

// AtLeast reports whether t ranks equal to or above min.
func (t Tier) AtLeast(min Tier) bool {
	return TierRank(t) >= TierRank(min)
}

// RateLimitPolicy is the request quota applied per window.
type RateLimitPolicy struct {
	Requests int
	Window   time.Duration
}

// WindowSeconds returns the window length in whole seconds.
func (p RateLimitPolicy) WindowSeconds() int {
	return int(p.Window / time.Second)
}

// WindowLabel renders the window in hours, e.g. "1 hour(s)".
func (p RateLimitPolicy) WindowLabel() string {
	hours := p.Window.Hours()
	if hours == float64(int64(hours)) {
		return fmt.Sprintf("%d hour(s)", int64(hours))
	}
	return fmt.Sprintf("%g hour(s)", hours)
}

// RateLimitFor returns the quota for t. Unknown tiers get the free policy.
func RateLimitFor(t Tier) RateLimitPolicy {
	switch t {
	case TierPro:
		return RateLimitPolicy{Requests: 1000, Window: time.Hour}
	case TierBusiness:
		return RateLimitPolicy{Requests: 10000, Window: time.Hour}
	case TierEnterprise:
		return RateLimitPolicy{Requests: 100000, Window: time.Hour}
	case TierFree:
		return RateLimitPolicy{Requests: 100, Window: time.Hour}
	}
	return RateLimitPolicy{Requests: 100, Window: time.Hour}
}

// Unlimited marks a feature quota without an upper bound.
const Unlimited = -1

// TierFeatures describes what a subscription tier unlocks.
type TierFeatures struct {
	CardsPerMonth int    `json:"cards_per_month"`
	TeamMembers   int    `json:"team_members"`
	Integrations  int    `json:"integrations"`
	Analytics     bool   `json:"analytics"`
	API           bool   `json:"api"`
	Support       string `json:"support"`
}

// Features returns the feature allowance of t. Unknown tiers get free's allowance.
func (t Tier) Features() TierFeatures {
	switch t {
	case TierPro:
		return TierFeatures{CardsPerMonth: 500, TeamMembers: 10, Integrations: 3, Analytics: true, Support: "email"}
	case TierBusiness:
		return TierFeatures{CardsPerMonth: 2000, TeamMembers: 50, Integrations: 10, Analytics: true, API: true, Support: "priority"}
	case TierEnterprise:
		return TierFeatures{CardsPerMonth: Unlimited, TeamMembers: Unlimited, Integrations: Unlimited, Analytics: true, API: true, Support: "dedicated"}
	case TierFree:
		return TierFeatures{CardsPerMonth: 50, TeamMembers: 1, Support: "community"}
	}
	return TierFeatures{CardsPerMonth: 50, TeamMembers: 1, Support: "community"}
}

// MaxUploadBytes is the largest card image accepted for t.
func (t Tier) MaxUploadBytes() int64 {
	if t == TierEnterprise {
		return 50 << 20
	}
	return 10 << 20
}
