package models

import "time"

// Reservation links an account to a spot for a time interval.
// It is active until LeavingTimestamp is set.
type Reservation struct {
	ID               int64      `json:"id"`
	SpotID           int64      `json:"spot_id"`
	UserID           int64      `json:"user_id"`
	ParkingTimestamp time.Time  `json:"parking_timestamp"`
	LeavingTimestamp *time.Time `json:"leaving_timestamp,omitempty"`
	ParkingCost      *float64   `json:"parking_cost,omitempty"`
}

// Active reports whether the reservation has not been released.
func (r *Reservation) Active() bool {
	return r.LeavingTimestamp == nil
}

// ReservationView is a reservation joined with its lot for display.
type ReservationView struct {
	Reservation
	LotID        int64   `json:"lot_id"`
	LotName      string  `json:"lot_name"`
	SpotNumber   string  `json:"spot_number,omitempty"`
	PricePerHour float64 `json:"price_per_hour"`
}
