package booking

import (
	"time"
)

// PricingStrategy quotes the duration and cost of a booking window
// against an hourly rate. The quote is computed once at creation and
// frozen on the booking; later price changes never touch it.
type PricingStrategy interface {
	// Quote returns the billable duration in whole hours and the total
	// cost in cents for the given window.
	Quote(pricePerHourCents int64, start, end time.Time) (durationHours int, totalCents int64)
}

// HourlyPricingStrategy bills by the hour, rounding partial hours up,
// with a one hour minimum.
type HourlyPricingStrategy struct{}

// NewHourlyPricingStrategy creates the standard hourly pricing strategy.
func NewHourlyPricingStrategy() *HourlyPricingStrategy {
	return &HourlyPricingStrategy{}
}

// Quote computes duration and cost: ceil((end-start)/1h), minimum 1 hour.
func (s *HourlyPricingStrategy) Quote(pricePerHourCents int64, start, end time.Time) (int, int64) {
	elapsed := end.Sub(start)
	hours := int((elapsed + time.Hour - 1) / time.Hour)
	if hours < 1 {
		hours = 1
	}
	return hours, int64(hours) * pricePerHourCents
}
