package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/api/httperr"
	"github.com/bizcard/enterprise-auth/internal/api/middleware"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

// AccessHandler serves the protected endpoints. Authorization has already
// been decided by the middleware chain; the handlers report what was granted.
type AccessHandler struct {
	tenants ports.TenantRepository
	audit   ports.SecurityAuditor
}

func NewAccessHandler(tenants ports.TenantRepository, audit ports.SecurityAuditor) *AccessHandler {
	return &AccessHandler{tenants: tenants, audit: audit}
}

const apiKeyPrefixLen = 8

type rateLimitResponse struct {
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"windowSeconds"`
	Window        string `json:"window"`
	Bypassed      bool   `json:"bypassed"`
}

type meResponse struct {
	User           identityResponse    `json:"user"`
	Features       domain.TierFeatures `json:"features"`
	RateLimit      rateLimitResponse   `json:"rateLimit"`
	MaxUploadBytes int64               `json:"maxUploadBytes"`
}

type tenantPolicyResponse struct {
	TenantID   string              `json:"tenantId"`
	Name       string              `json:"name"`
	Domain     string              `json:"domain,omitempty"`
	Plan       string              `json:"plan"`
	SSOEnabled bool                `json:"ssoEnabled"`
	Features   domain.TierFeatures `json:"features"`
	RateLimit  rateLimitResponse   `json:"rateLimit"`
}

type accessGrantResponse struct {
	Granted    bool   `json:"granted"`
	Permission string `json:"permission,omitempty"`
	TenantID   string `json:"tenantId,omitempty"`
	Tier       string `json:"tier"`
}

type apiKeyResponse struct {
	APIKey    string `json:"apiKey"`
	KeyPrefix string `json:"keyPrefix"`
	TenantID  string `json:"tenantId"`
}

type integrationAccessResponse struct {
	Granted       bool   `json:"granted"`
	KeyPrefix     string `json:"keyPrefix"`
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	Tier          string `json:"tier"`
}

func rateLimitOf(id domain.Identity) rateLimitResponse {
	p := domain.RateLimitFor(id.Tier)
	return rateLimitResponse{
		Requests:      p.Requests,
		WindowSeconds: p.WindowSeconds(),
		Window:        p.WindowLabel(),
		Bypassed:      id.BypassesRateLimit(),
	}
}

// Me returns the caller's identity and what their tier allows.
//
// @Summary      Current identity
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  httperr.ErrorResponse
// @Failure      403  {object}  httperr.ErrorResponse
// @Failure      429  {object}  httperr.RateLimitedResponse
// @Router       /api/v1/me [get]
func (h *AccessHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return httperr.Write(c, err)
	}
	return c.JSON(http.StatusOK, meResponse{
		User:           toIdentityResponse(id),
		Features:       id.Tier.Features(),
		RateLimit:      rateLimitOf(id),
		MaxUploadBytes: id.Tier.MaxUploadBytes(),
	})
}

// TenantPolicy returns the plan and limits of the caller's tenant.
//
// @Summary      Tenant policy
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  tenantPolicyResponse
// @Failure      401  {object}  httperr.ErrorResponse
// @Failure      403  {object}  httperr.RoleDeniedResponse
// @Failure      404  {object}  httperr.ErrorResponse
// @Router       /api/v1/tenant/policy [get]
func (h *AccessHandler) TenantPolicy(c echo.Context) error {
	tenantID, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return httperr.Write(c, domain.ErrTenantRequired)
	}

	tenant, err := h.tenants.FindByID(c.Request().Context(), tenantID)
	if err != nil {
		return httperr.Write(c, err)
	}

	plan := tenant.Plan
	if !plan.Valid() {
		plan = domain.TierFree
	}
	policy := domain.RateLimitFor(plan)
	return c.JSON(http.StatusOK, tenantPolicyResponse{
		TenantID:   tenant.ID,
		Name:       tenant.Name,
		Domain:     tenant.Domain,
		Plan:       string(plan),
		SSOEnabled: tenant.SSOEnabled,
		Features:   plan.Features(),
		RateLimit: rateLimitResponse{
			Requests:      policy.Requests,
			WindowSeconds: policy.WindowSeconds(),
			Window:        policy.WindowLabel(),
		},
	})
}

// IssueAPIKey mints an integration key for the caller's tenant. The key is
// returned once and only its prefix is recorded in the audit trail.
//
// @Summary      Issue integration API key
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  apiKeyResponse
// @Failure      401  {object}  httperr.ErrorResponse
// @Failure      403  {object}  httperr.RoleDeniedResponse
// @Failure      429  {object}  httperr.RateLimitedResponse
// @Router       /api/v1/tenant/api-keys [post]
func (h *AccessHandler) IssueAPIKey(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return httperr.Write(c, err)
	}
	tenantID, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return httperr.Write(c, domain.ErrTenantRequired)
	}

	key, err := domain.GenerateAPIKey()
	if err != nil {
		return err
	}
	prefix := key[:apiKeyPrefixLen]

	meta := middleware.RequestMeta(c)
	h.audit.LogEvent(c.Request().Context(), domain.EventAPIKeyIssued, id.ID, domain.EventDetails{
		TenantID:  tenantID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   true,
		Extra:     map[string]string{"keyPrefix": prefix},
	})

	return c.JSON(http.StatusCreated, apiKeyResponse{
		APIKey:    key,
		KeyPrefix: prefix,
		TenantID:  tenantID,
	})
}

// AnalyticsAccess confirms the caller may view tenant analytics.
//
// @Summary      Analytics access check
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accessGrantResponse
// @Failure      402  {object}  httperr.UpgradeRequiredResponse
// @Failure      403  {object}  httperr.PermissionDeniedResponse
// @Router       /api/v1/analytics/access [get]
func (h *AccessHandler) AnalyticsAccess(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return httperr.Write(c, err)
	}
	tenantID, _ := middleware.TenantFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, accessGrantResponse{
		Granted:    true,
		Permission: "analytics:view",
		TenantID:   tenantID,
		Tier:       string(id.Tier),
	})
}

// IntegrationsAccess confirms an integration key was accepted. A bearer
// token is optional on this route.
//
// @Summary      Integration access check
// @Tags         access
// @Produce      json
// @Param        x-api-key  header    string  true  "Integration API key (biz_ followed by 32 alphanumerics)"
// @Success      200        {object}  integrationAccessResponse
// @Failure      401        {object}  httperr.ErrorResponse
// @Failure      429        {object}  httperr.RateLimitedResponse
// @Router       /api/v1/integrations/access [get]
func (h *AccessHandler) IntegrationsAccess(c echo.Context) error {
	key, ok := middleware.APIKeyFromContext(c.Request().Context())
	if !ok {
		return httperr.Write(c, domain.ErrAPIKeyMissing)
	}

	resp := integrationAccessResponse{
		Granted:   true,
		KeyPrefix: key[:apiKeyPrefixLen],
		Tier:      string(domain.TierFree),
	}
	if id, err := ctxIdentity(c); err == nil {
		resp.Authenticated = true
		resp.UserID = id.ID
		resp.Tier = string(id.Tier)
	}
	return c.JSON(http.StatusOK, resp)
}
