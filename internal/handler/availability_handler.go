package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datecheck-bot/internal/dto"
	"github.com/noah-isme/datecheck-bot/internal/service"
	appErrors "github.com/noah-isme/datecheck-bot/pkg/errors"
	"github.com/noah-isme/datecheck-bot/pkg/response"
)

const sourceHTTP = "http"

// AvailabilityHandler answers date checks over HTTP. It does not notify the admins.
type AvailabilityHandler struct {
	checker availabilityChecker
	metrics *service.MetricsService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(checker availabilityChecker, metrics *service.MetricsService) *AvailabilityHandler {
	return &AvailabilityHandler{checker: checker, metrics: metrics}
}

// Check godoc
// @Summary Check whether a date is booked
// @Tags Availability
// @Produce json
// @Param date query string true "Date in DD.MM.YYYY"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.metrics.RecordDateCheck(sourceHTTP, service.OutcomeInvalid)
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidDateFormat, "date query parameter is required"))
		return
	}

	date, err := service.ParseDate(query.Date)
	if err != nil {
		h.metrics.RecordDateCheck(sourceHTTP, service.OutcomeInvalid)
		response.Error(c, err)
		return
	}

	availability, err := h.checker.Check(c.Request.Context(), date)
	if err != nil {
		h.metrics.RecordDateCheck(sourceHTTP, service.OutcomeUnavailable)
		response.Error(c, err)
		return
	}

	outcome := service.OutcomeFree
	if availability.Booked() {
		outcome = service.OutcomeBooked
	}
	h.metrics.RecordDateCheck(sourceHTTP, outcome)
	response.OK(c, dto.AvailabilityResponse{
		Date:   date.String(),
		Status: availability.StatusLabel(),
		Booked: availability.Booked(),
	})
}
