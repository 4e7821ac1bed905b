package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookly/internal/domain"
)

// @Summary List businesses
// @Description Public business directory with filters and pagination
// @Tags Businesses
// @Produce json
// @Param category_id query int false "Category ID"
// @Param search query string false "Matches name, description or address"
// @Param active query boolean false "Only active (true) or inactive (false) businesses"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} paginatedResponse
// @Failure 400 {object} errorResponseBody
// @Failure 500 {object} errorResponseBody
// @Router /businesses [get]
func (h *Handler) getBusinesses(c *gin.Context) {
	page, pageSize, offset := pagination(c)

	categoryID, ok := optionalInt64Query(c, "category_id")
	if !ok {
		return
	}

	filter := domain.BusinessFilter{
		CategoryID: categoryID,
		Search:     c.Query("search"),
		Limit:      pageSize,
		Offset:     offset,
	}

	if active := c.Query("active"); active != "" {
		isActive, err := strconv.ParseBool(active)
		if err != nil {
			badRequestResponse(c, "invalid active")
			return
		}
		filter.IsActive = &isActive
	}

	businesses, total, err := h.services.Business.List(c.Request.Context(), filter)
	if err != nil {
		h.serviceErrorResponse(c, err, "list businesses")
		return
	}

	paginatedSuccessResponse(c, businesses, total, page, pageSize)
}

// @Summary Register a business
// @Tags Businesses
// @Accept json
// @Produce json
// @Param input body domain.CreateBusinessDTO true "Business"
// @Success 201 {object} idResponse
// @Failure 400 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody "Email already registered"
// @Failure 500 {object} errorResponseBody
// @Router /businesses [post]
func (h *Handler) createBusiness(c *gin.Context) {
	var input domain.CreateBusinessDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid business payload", zap.Error(err))
		badRequestResponse(c, "invalid request body")
		return
	}

	id, err := h.services.Business.Create(c.Request.Context(), input)
	if err != nil {
		h.serviceErrorResponse(c, err, "create business")
		return
	}

	createdResponse(c, idResponse{ID: id})
}

// @Summary Get a business
// @Tags Businesses
// @Produce json
// @Param id path int true "Business ID"
// @Success 200 {object} domain.Business
// @Failure 400 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /businesses/{id} [get]
func (h *Handler) getBusinessByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	business, err := h.services.Business.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "get business")
		return
	}

	successResponse(c, http.StatusOK, business)
}

// @Summary Update a business
// @Description Partial update by the owner or an admin. Staff entries without a password keep their current one.
// @Tags Businesses
// @Accept json
// @Produce json
// @Param id path int true "Business ID"
// @Param input body domain.UpdateBusinessDTO true "Fields to change"
// @Success 200 {object} domain.Business
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /businesses/{id} [put]
func (h *Handler) updateBusiness(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := getPrincipal(c)
	if !canEditBusiness(principal, id) {
		forbiddenResponse(c)
		return
	}

	var input domain.UpdateBusinessDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid business payload", zap.Error(err))
		badRequestResponse(c, "invalid request body")
		return
	}

	// Only admins may activate or deactivate a business.
	if input.IsActive != nil && principal.Role != domain.RoleAdmin {
		forbiddenResponse(c, "only admins can change the active flag")
		return
	}

	if err := h.services.Business.Update(c.Request.Context(), id, input); err != nil {
		h.serviceErrorResponse(c, err, "update business")
		return
	}

	business, err := h.services.Business.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "get business")
		return
	}

	successResponse(c, http.StatusOK, business)
}

// @Summary Delete a business
// @Tags Businesses
// @Param id path int true "Business ID"
// @Success 204
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /businesses/{id} [delete]
func (h *Handler) deleteBusiness(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := getPrincipal(c)
	if !canEditBusiness(principal, id) {
		forbiddenResponse(c)
		return
	}

	if err := h.services.Business.Delete(c.Request.Context(), id); err != nil {
		h.serviceErrorResponse(c, err, "delete business")
		return
	}

	noContentResponse(c)
}
