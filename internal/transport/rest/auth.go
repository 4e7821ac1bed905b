package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookly/internal/domain"
)

// @Summary Business login
// @Description Authenticates a business owner and returns access and refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.Tokens
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody "Business is deactivated"
// @Failure 429 {object} errorResponseBody
// @Router /auth/business/login [post]
func (h *Handler) businessLogin(c *gin.Context) {
	h.login(c, domain.RoleBusiness)
}

// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.Tokens
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Failure 429 {object} errorResponseBody
// @Router /auth/admin/login [post]
func (h *Handler) adminLogin(c *gin.Context) {
	h.login(c, domain.RoleAdmin)
}

// @Summary Staff login
// @Description Authenticates a staff member by the email stored on their business
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.Tokens
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody "Staff member or business is deactivated"
// @Failure 429 {object} errorResponseBody
// @Router /auth/staff/login [post]
func (h *Handler) staffLogin(c *gin.Context) {
	h.login(c, domain.RoleStaff)
}

func (h *Handler) login(c *gin.Context, role domain.Role) {
	var input domain.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid login payload", zap.Error(err))
		badRequestResponse(c, "invalid request body")
		return
	}

	tokens, err := h.services.Auth.Login(c.Request.Context(), role, input, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.serviceErrorResponse(c, err, "log in")
		return
	}

	successResponse(c, http.StatusOK, tokens)
}

// @Summary Refresh tokens
// @Description Exchanges a refresh token for a new token pair. Each refresh token works once.
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body domain.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} domain.Tokens
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Router /auth/refresh [post]
func (h *Handler) refreshTokens(c *gin.Context) {
	var input domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "invalid request body")
		return
	}

	tokens, err := h.services.Auth.RefreshTokens(c.Request.Context(), input.RefreshToken, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.serviceErrorResponse(c, err, "refresh tokens")
		return
	}

	successResponse(c, http.StatusOK, tokens)
}

// @Summary Logout
// @Tags Auth
// @Accept json
// @Param input body domain.RefreshTokenRequest true "Refresh token"
// @Success 204
// @Failure 400 {object} errorResponseBody
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	var input domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "invalid request body")
		return
	}

	if err := h.services.Auth.Logout(c.Request.Context(), input.RefreshToken); err != nil {
		h.serviceErrorResponse(c, err, "log out")
		return
	}

	noContentResponse(c)
}

// @Summary Current principal
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.Principal
// @Failure 401 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *Handler) me(c *gin.Context) {
	principal, ok := getPrincipal(c)
	if !ok {
		unauthorizedResponse(c)
		return
	}
	successResponse(c, http.StatusOK, principal)
}
