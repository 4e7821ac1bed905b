package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookly/internal/domain"
)

// @Summary List location requests
// @Description Admins see every request, businesses only their own
// @Tags Location requests
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param business_id query int false "Business ID (admins only)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} paginatedResponse
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /location-requests [get]
func (h *Handler) getLocationRequests(c *gin.Context) {
	principal, _ := getPrincipal(c)
	page, pageSize, offset := pagination(c)

	filter := domain.LocationRequestFilter{
		Limit:  pageSize,
		Offset: offset,
	}

	switch principal.Role {
	case domain.RoleAdmin:
		businessID, ok := optionalInt64Query(c, "business_id", "businessId")
		if !ok {
			return
		}
		filter.BusinessID = businessID
	case domain.RoleBusiness:
		filter.BusinessID = &principal.BusinessID
	default:
		forbiddenResponse(c)
		return
	}

	if raw := c.Query("status"); raw != "" {
		status := domain.LocationRequestStatus(raw)
		switch status {
		case domain.LocationRequestPending, domain.LocationRequestApproved, domain.LocationRequestRejected:
			filter.Status = &status
		default:
			badRequestResponse(c, "invalid status")
			return
		}
	}

	requests, total, err := h.services.LocationRequest.List(c.Request.Context(), filter)
	if err != nil {
		h.serviceErrorResponse(c, err, "list location requests")
		return
	}

	paginatedSuccessResponse(c, requests, total, page, pageSize)
}

// @Summary Request an address change
// @Tags Location requests
// @Accept json
// @Produce json
// @Param input body domain.CreateLocationRequestDTO true "Requested address"
// @Success 201 {object} idResponse
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /location-requests [post]
func (h *Handler) createLocationRequest(c *gin.Context) {
	var input domain.CreateLocationRequestDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid location request payload", zap.Error(err))
		badRequestResponse(c, "invalid request body")
		return
	}

	principal, _ := getPrincipal(c)

	id, err := h.services.LocationRequest.Create(c.Request.Context(), principal.BusinessID, input)
	if err != nil {
		h.serviceErrorResponse(c, err, "create location request")
		return
	}

	createdResponse(c, idResponse{ID: id})
}

// @Summary Get a location request
// @Tags Location requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} domain.LocationRequest
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /location-requests/{id} [get]
func (h *Handler) getLocationRequestByID(c *gin.Context) {
	request, ok := h.ownedLocationRequest(c)
	if !ok {
		return
	}

	successResponse(c, http.StatusOK, request)
}

// @Summary Review a location request
// @Description Approving moves the business to the requested address
// @Tags Location requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param input body domain.ReviewLocationRequestDTO true "Decision"
// @Success 200 {object} domain.LocationRequest
// @Failure 400 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody "Already reviewed"
// @Security ApiKeyAuth
// @Router /location-requests/{id} [put]
func (h *Handler) reviewLocationRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input domain.ReviewLocationRequestDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "invalid request body")
		return
	}

	request, err := h.services.LocationRequest.Review(c.Request.Context(), id, input)
	if err != nil {
		h.serviceErrorResponse(c, err, "review location request")
		return
	}

	successResponse(c, http.StatusOK, request)
}

// @Summary Delete a location request
// @Description Businesses may withdraw only their own pending requests
// @Tags Location requests
// @Param id path int true "Request ID"
// @Success 204
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /location-requests/{id} [delete]
func (h *Handler) deleteLocationRequest(c *gin.Context) {
	request, ok := h.ownedLocationRequest(c)
	if !ok {
		return
	}

	principal, _ := getPrincipal(c)
	if principal.Role != domain.RoleAdmin && request.Status != domain.LocationRequestPending {
		errorResponse(c, http.StatusConflict, "only pending requests can be withdrawn")
		return
	}

	if err := h.services.LocationRequest.Delete(c.Request.Context(), request.ID); err != nil {
		h.serviceErrorResponse(c, err, "delete location request")
		return
	}

	noContentResponse(c)
}

// ownedLocationRequest loads the :id request if the caller is an admin or the
// owning business.
func (h *Handler) ownedLocationRequest(c *gin.Context) (*domain.LocationRequest, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	request, err := h.services.LocationRequest.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "get location request")
		return nil, false
	}

	principal, _ := getPrincipal(c)
	if !canEditBusiness(principal, request.BusinessID) {
		forbiddenResponse(c)
		return nil, false
	}

	return request, true
}
