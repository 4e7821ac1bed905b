package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookly/internal/availability"
	"bookly/internal/domain"
)

// @Summary Day availability
// @Description Reservation grid of one day: every 15-minute slot with its state and occupant.
// @Description Customer details are only included for the business's own staff, owners and admins.
// @Tags Availability
// @Produce json
// @Param id path int true "Business ID"
// @Param date query string true "Date YYYY-MM-DD"
// @Param staff query string false "Staff member name or all"
// @Param duration query int false "Service duration in minutes (default 15)"
// @Success 200 {object} availability.Day
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody "Invalid token"
// @Failure 404 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /businesses/{id}/availability [get]
func (h *Handler) getAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		badRequestResponse(c, "date is required")
		return
	}

	duration := availability.SlotMinutes
	if raw := c.Query("duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			badRequestResponse(c, "invalid duration")
			return
		}
		duration = d
	}

	principal, authenticated := getPrincipal(c)
	detailed := authenticated && principal.CanManageBusiness(id)

	day, err := h.services.Availability.Day(c.Request.Context(), id, date, c.Query("staff"), duration, detailed)
	if err != nil {
		h.serviceErrorResponse(c, err, "load availability")
		return
	}

	successResponse(c, http.StatusOK, day)
}

// @Summary Extend a slot selection
// @Description Fills every selectable slot between the last selected slot and the target, like a shift-click
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path int true "Business ID"
// @Param input body domain.RangeSelectDTO true "Current selection and target"
// @Success 200 {object} domain.RangeSelection
// @Failure 400 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /businesses/{id}/availability/range [post]
func (h *Handler) rangeSelect(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input domain.RangeSelectDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "invalid request body")
		return
	}

	selection, err := h.services.Availability.RangeSelect(c.Request.Context(), id, input)
	if err != nil {
		h.serviceErrorResponse(c, err, "select range")
		return
	}

	successResponse(c, http.StatusOK, selection)
}
