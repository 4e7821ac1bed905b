package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookly/internal/domain"
)

// @Summary List blocked slots
// @Tags Blocked slots
// @Produce json
// @Param business_id query int false "Business ID (defaults to the caller's business)"
// @Param date query string false "Date YYYY-MM-DD"
// @Param staff query string false "Staff member name"
// @Success 200 {array} domain.BlockedSlot
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /blocked-slots [get]
func (h *Handler) getBlockedSlots(c *gin.Context) {
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

	slots, err := h.services.BlockedSlot.List(c.Request.Context(), domain.BlockedSlotFilter{
		BusinessID: businessID,
		Date:       optionalStringQuery(c, "date"),
		StaffName:  optionalStringQuery(c, "staff"),
	})
	if err != nil {
		h.serviceErrorResponse(c, err, "list blocked slots")
		return
	}

	successResponse(c, http.StatusOK, slots)
}

// @Summary Block a time range
// @Description A missing end time or one not after the start blocks a single 15-minute slot
// @Tags Blocked slots
// @Accept json
// @Produce json
// @Param input body domain.CreateBlockedSlotDTO true "Blocked range"
// @Success 201 {object} domain.BlockedSlot
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /blocked-slots [post]
func (h *Handler) createBlockedSlot(c *gin.Context) {
	var input domain.CreateBlockedSlotDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid blocked slot payload", zap.Error(err))
		badRequestResponse(c, "invalid request body")
		return
	}

	principal, _ := getPrincipal(c)
	if !principal.CanManageBusiness(input.BusinessID) {
		forbiddenResponse(c)
		return
	}

	slot, err := h.services.BlockedSlot.Create(c.Request.Context(), input)
	if err != nil {
		h.serviceErrorResponse(c, err, "block slot")
		return
	}

	createdResponse(c, slot)
}

// @Summary Block selected slots
// @Description Blocks every selected slot in one transaction. range_to extends the selection from its last slot first.
// @Tags Blocked slots
// @Accept json
// @Produce json
// @Param input body domain.BlockSlotsDTO true "Selection"
// @Success 201 {array} domain.BlockedSlot
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody "A selected slot is no longer free"
// @Security ApiKeyAuth
// @Router /blocked-slots/batch [post]
func (h *Handler) blockSlots(c *gin.Context) {
	var input domain.BlockSlotsDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid batch block payload", zap.Error(err))
		badRequestResponse(c, "invalid request body")
		return
	}

	principal, _ := getPrincipal(c)
	if !principal.CanManageBusiness(input.BusinessID) {
		forbiddenResponse(c)
		return
	}

	slots, err := h.services.BlockedSlot.BlockSlots(c.Request.Context(), input)
	if err != nil {
		h.serviceErrorResponse(c, err, "block slots")
		return
	}

	createdResponse(c, slots)
}

// @Summary Unblock a slot
// @Tags Blocked slots
// @Param id query int true "Blocked slot ID"
// @Success 204
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Security ApiKeyAuth
// @Router /blocked-slots [delete]
func (h *Handler) deleteBlockedSlot(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequestResponse(c, "invalid id")
		return
	}

	slot, err := h.services.BlockedSlot.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "get blocked slot")
		return
	}

	principal, _ := getPrincipal(c)
	if !principal.CanManageBusiness(slot.BusinessID) {
		forbiddenResponse(c)
		return
	}

	if err := h.services.BlockedSlot.Delete(c.Request.Context(), id); err != nil {
		h.serviceErrorResponse(c, err, "unblock slot")
		return
	}

	noContentResponse(c)
}
