package handler

import (
	"time"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
)

// --- Request / Response types ---

// registerRequest has no role field: self-registration always yields the
// user role. Multi-byte passwords over bcrypt's 72-byte limit are rejected
// by the hasher.
type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72,strongpassword"`
	Name     string `json:"name"     validate:"required,max=100,personname"`
	TenantID string `json:"tenantId"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type identityResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	Role        string    `json:"role"`
	TenantID    string    `json:"tenantId"`
	Tier        string    `json:"tier"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	LastLogin   time.Time `json:"lastLogin,omitzero"`
}

type registerResponse struct {
	User identityResponse `json:"user"`
}

type loginResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	TokenType    string           `json:"tokenType"`
	ExpiresIn    int64            `json:"expiresIn"`
	User         identityResponse `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

const tokenTypeBearer = "Bearer"

func toIdentityResponse(id domain.Identity) identityResponse {
	perms := id.Permissions
	if perms == nil {
		perms = []string{}
	}
	return identityResponse{
		ID:          id.ID,
		Email:       id.Email,
		Name:        id.Name,
		Role:        string(id.Role),
		TenantID:    id.TenantID,
		Tier:        string(id.Tier),
		Permissions: perms,
		CreatedAt:   id.CreatedAt,
		LastLogin:   id.LastLogin,
	}
}
