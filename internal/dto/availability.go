package dto

// AvailabilityQuery binds GET /api/v1/availability.
type AvailabilityQuery struct {
	Date string `form:"date" binding:"required"`
}

// AvailabilityResponse is the JSON answer for a date check.
type AvailabilityResponse struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	Booked bool   `json:"booked"`
}
