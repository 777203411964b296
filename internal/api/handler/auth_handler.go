package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.Registration  true  "Registration form"
// @Success      201   {object}  domain.AuthResult
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req domain.Registration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// Login authenticates a user and returns a token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.LoginCredentials  true  "Login credentials"
// @Success      200   {object}  domain.AuthResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req domain.LoginCredentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Me returns the identity behind the bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	identity, err := h.authService.Me(c.Request().Context(), claims.UserID)
	if err != nil {
		// The account behind a still-valid token is gone.
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidToken
		}
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// Logout revokes the bearer token.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [delete]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.RefreshRequest  true  "Refresh token"
// @Success      200   {object}  domain.AuthResult
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req domain.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
