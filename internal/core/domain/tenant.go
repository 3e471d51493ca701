package domain

import "time"

// Tenant is an isolated customer organization. Its plan determines the tier
// of every identity created inside it.
type Tenant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Domain     string    `json:"domain"`
	Plan       Tier      `json:"plan"`
	SSOEnabled bool      `json:"ssoEnabled"`
	CreatedAt  time.Time `json:"createdAt"`
}
