package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/api/httperr"
	"github.com/bizcard/enterprise-auth/internal/api/metrics"
	"github.com/bizcard/enterprise-auth/internal/api/middleware"
	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new identity inside a tenant.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  httperr.ErrorResponse
// @Failure      404   {object}  httperr.ErrorResponse
// @Failure      409   {object}  httperr.ErrorResponse
// @Failure      429   {object}  httperr.ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid_request").Inc()
		return httperr.Write(c, err)
	}

	identity, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		TenantID: req.TenantID,
		Meta:     middleware.RequestMeta(c),
	})
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", failureReason(err)).Inc()
		return httperr.Write(c, err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	return c.JSON(http.StatusCreated, registerResponse{User: toIdentityResponse(*identity)})
}

// Login authenticates with e-mail and password and returns a token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  httperr.ErrorResponse
// @Failure      401   {object}  httperr.ErrorResponse
// @Failure      429   {object}  httperr.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_request").Inc()
		return httperr.Write(c, err)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, middleware.RequestMeta(c))
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", failureReason(err)).Inc()
		return httperr.Write(c, err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(result.Tokens.ExpiresIn.Seconds()),
		User:         toIdentityResponse(*result.Identity),
	})
}

// Refresh exchanges a refresh token for a new access token.
//
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  refreshResponse
// @Failure      400   {object}  httperr.ErrorResponse
// @Failure      403   {object}  httperr.ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", "invalid_request").Inc()
		return httperr.Write(c, err)
	}

	result, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken, middleware.RequestMeta(c))
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", failureReason(err)).Inc()
		return httperr.Write(c, err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("refresh", "success").Inc()
	return c.JSON(http.StatusOK, refreshResponse{
		AccessToken: result.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(result.ExpiresIn.Seconds()),
	})
}

// failureReason keeps the metric label set small.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrTokenInvalid):
		return "invalid_token"
	case errors.Is(err, domain.ErrUserExists):
		return "user_exists"
	case errors.Is(err, domain.ErrTenantNotFound):
		return "tenant_not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_request"
	}
	return "error"
}
