package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookly/internal/domain"
)

// @Summary Create a booking
// @Description Public booking form. The slot must stay free for the whole service duration.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param input body domain.CreateBookingDTO true "Booking"
// @Success 201 {object} domain.Booking
// @Failure 400 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody "Business not found"
// @Failure 409 {object} errorResponseBody "Slot unavailable"
// @Router /bookings [post]
func (h *Handler) createBooking(c *gin.Context) {
	var input domain.CreateBookingDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid booking payload", zap.Error(err))
		badRequestResponse(c, "invalid request body")
		return
	}

	booking, err := h.services.Booking.Create(c.Request.Context(), input)
	if err != nil {
		h.serviceErrorResponse(c, err, "create booking")
		return
	}

	createdResponse(c, booking)
}

// @Summary List bookings of a business
// @Description Completes finished bookings first. Business and staff callers default to their own business.
// @Tags Bookings
// @Produce json
// @Param business_id query int false "Business ID (required for admins)"
// @Param status query string false "PENDING, CONFIRMED, COMPLETED or CANCELLED"
// @Param date query string false "Exact date YYYY-MM-DD"
// @Param date_from query string false "From date YYYY-MM-DD"
// @Param date_to query string false "To date YYYY-MM-DD"
// @Param staff query string false "Staff member name"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} paginatedResponse
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /bookings [get]
func (h *Handler) getBookings(c *gin.Context) {
	principal, _ := getPrincipal(c)

	businessID, ok := optionalInt64Query(c, "business_id", "businessId")
	if !ok {
		return
	}
	if businessID == nil {
		if principal.Role == domain.RoleAdmin {
			badRequestResponse(c, "business_id is required")
			return
		}
		businessID = &principal.BusinessID
	}
	if !principal.CanManageBusiness(*businessID) {
		forbiddenResponse(c)
		return
	}

	filter, ok := bookingFilter(c)
	if !ok {
		return
	}

	bookings, total, err := h.services.Booking.ListForBusiness(c.Request.Context(), *businessID, filter)
	if err != nil {
		h.serviceErrorResponse(c, err, "list bookings")
		return
	}

	page, pageSize, _ := pagination(c)
	paginatedSuccessResponse(c, bookings, total, page, pageSize)
}

// @Summary List all bookings
// @Description Admin view across every business
// @Tags Admin
// @Produce json
// @Param business_id query int false "Business ID"
// @Param status query string false "PENDING, CONFIRMED, COMPLETED or CANCELLED"
// @Param date_from query string false "From date YYYY-MM-DD"
// @Param date_to query string false "To date YYYY-MM-DD"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} paginatedResponse
// @Failure 403 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /admin/bookings [get]
func (h *Handler) getAllBookings(c *gin.Context) {
	businessID, ok := optionalInt64Query(c, "business_id", "businessId")
	if !ok {
		return
	}

	filter, ok := bookingFilter(c)
	if !ok {
		return
	}
	filter.BusinessID = businessID

	bookings, total, err := h.services.Booking.List(c.Request.Context(), filter)
	if err != nil {
		h.serviceErrorResponse(c, err, "list bookings")
		return
	}

	page, pageSize, _ := pagination(c)
	paginatedSuccessResponse(c, bookings, total, page, pageSize)
}

// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} domain.Booking
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /bookings/{id} [get]
func (h *Handler) getBookingByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.services.Booking.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "get booking")
		return
	}

	principal, _ := getPrincipal(c)
	if !principal.CanManageBusiness(booking.BusinessID) {
		forbiddenResponse(c)
		return
	}

	successResponse(c, http.StatusOK, booking)
}

// @Summary Change booking status
// @Description PENDING to CONFIRMED or CANCELLED, CONFIRMED to COMPLETED or CANCELLED. Cancelling requires confirm=true.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path int true "Booking ID"
// @Param input body domain.UpdateBookingStatusDTO true "New status"
// @Success 200 {object} domain.Booking
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody "Transition not allowed"
// @Security ApiKeyAuth
// @Router /bookings/{id} [patch]
func (h *Handler) updateBookingStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input domain.UpdateBookingStatusDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "invalid request body")
		return
	}

	existing, err := h.services.Booking.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "get booking")
		return
	}

	principal, _ := getPrincipal(c)
	if !canEditBusiness(principal, existing.BusinessID) {
		forbiddenResponse(c)
		return
	}

	booking, err := h.services.Booking.UpdateStatus(c.Request.Context(), id, input)
	if err != nil {
		h.serviceErrorResponse(c, err, "update booking status")
		return
	}

	successResponse(c, http.StatusOK, booking)
}

// bookingFilter reads the shared booking query parameters. date is shorthand
// for date_from = date_to.
func bookingFilter(c *gin.Context) (domain.BookingFilter, bool) {
	_, pageSize, offset := pagination(c)
	filter := domain.BookingFilter{
		StaffName: optionalStringQuery(c, "staff"),
		DateFrom:  optionalStringQuery(c, "date_from"),
		DateTo:    optionalStringQuery(c, "date_to"),
		Limit:     pageSize,
		Offset:    offset,
	}

	if date := optionalStringQuery(c, "date"); date != nil {
		filter.DateFrom = date
		filter.DateTo = date
	}

	if raw := c.Query("status"); raw != "" {
		status := domain.BookingStatus(raw)
		if !status.IsValid() {
			badRequestResponse(c, "invalid status")
			return filter, false
		}
		filter.Status = &status
	}

	return filter, true
}
