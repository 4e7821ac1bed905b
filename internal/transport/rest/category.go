package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookly/internal/domain"
)

// @Summary List categories
// @Tags Categories
// @Produce json
// @Param search query string false "Name filter"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} paginatedResponse
// @Failure 500 {object} errorResponseBody
// @Router /categories [get]
func (h *Handler) getCategories(c *gin.Context) {
	page, pageSize, offset := pagination(c)

	categories, total, err := h.services.Category.List(c.Request.Context(), domain.CategoryFilter{
		Search: c.Query("search"),
		Limit:  pageSize,
		Offset: offset,
	})
	if err != nil {
		h.serviceErrorResponse(c, err, "list categories")
		return
	}

	paginatedSuccessResponse(c, categories, total, page, pageSize)
}

// @Summary Get a category
// @Tags Categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} domain.Category
// @Failure 404 {object} errorResponseBody
// @Router /categories/{id} [get]
func (h *Handler) getCategoryByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := h.services.Category.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "get category")
		return
	}

	successResponse(c, http.StatusOK, category)
}

// @Summary Create a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param input body domain.CreateCategoryDTO true "Category"
// @Success 201 {object} idResponse
// @Failure 400 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody "Slug already used"
// @Security ApiKeyAuth
// @Router /categories [post]
func (h *Handler) createCategory(c *gin.Context) {
	var input domain.CreateCategoryDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid category payload", zap.Error(err))
		badRequestResponse(c, "invalid request body")
		return
	}

	id, err := h.services.Category.Create(c.Request.Context(), input)
	if err != nil {
		h.serviceErrorResponse(c, err, "create category")
		return
	}

	createdResponse(c, idResponse{ID: id})
}

// @Summary Update a category
// @Tags Categories
// @Accept json
// @Param id path int true "Category ID"
// @Param input body domain.UpdateCategoryDTO true "Fields to change"
// @Success 200 {object} messageResponseType
// @Failure 400 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /categories/{id} [put]
func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input domain.UpdateCategoryDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "invalid request body")
		return
	}

	if err := h.services.Category.Update(c.Request.Context(), id, input); err != nil {
		h.serviceErrorResponse(c, err, "update category")
		return
	}

	messageResponse(c, http.StatusOK, "category updated")
}

// @Summary Delete a category
// @Tags Categories
// @Param id path int true "Category ID"
// @Success 204
// @Failure 404 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /categories/{id} [delete]
func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.services.Category.Delete(c.Request.Context(), id); err != nil {
		h.serviceErrorResponse(c, err, "delete category")
		return
	}

	noContentResponse(c)
}
