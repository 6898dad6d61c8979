package service

import (
	"math"
	"time"
)

// BilledHours rounds a parking duration up to whole hours. Every stay is billed at
// least one hour, including zero and negative durations caused by clock skew.
func BilledHours(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 1
	}
	hours := int(math.Ceil(elapsed.Minutes() / 60))
	if hours < 1 {
		return 1
	}
	return hours
}

// ParkingFee returns the billed hours and the cost of a stay from start to end.
func ParkingFee(start, end time.Time, pricePerHour float64) (int, float64) {
	hours := BilledHours(end.Sub(start))
	return hours, roundCents(float64(hours) * pricePerHour)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
