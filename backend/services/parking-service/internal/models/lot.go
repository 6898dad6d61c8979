package models

import (
	"fmt"
	"time"
)

// SpotStatus is the occupancy state of a spot. Values match the stored codes.
type SpotStatus string

const (
	SpotAvailable SpotStatus = "A"
	SpotOccupied  SpotStatus = "O"
)

// ParseSpotStatus converts a stored status code into a SpotStatus.
func ParseSpotStatus(raw string) (SpotStatus, error) {
	switch SpotStatus(raw) {
	case SpotAvailable, SpotOccupied:
		return SpotStatus(raw), nil
	default:
		return "", fmt.Errorf("models: unknown spot status %q", raw)
	}
}

// String returns the readable status name.
func (s SpotStatus) String() string {
	switch s {
	case SpotAvailable:
		return "available"
	case SpotOccupied:
		return "occupied"
	default:
		return string(s)
	}
}

// MarshalText renders the readable status name in JSON payloads.
func (s SpotStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Lot is a parking facility with a fixed spot inventory.
type Lot struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	PinCode      string    `json:"pin_code"`
	PricePerHour float64   `json:"price_per_hour"`
	MaxSpots     int       `json:"max_spots"`
	CreatedAt    time.Time `json:"created_at"`
}

// Spot is a single parking place inside a lot.
type Spot struct {
	ID         int64      `json:"id"`
	LotID      int64      `json:"lot_id"`
	SpotNumber string     `json:"spot_number,omitempty"`
	Status     SpotStatus `json:"status"`
}

// SpotCounts holds the number of spots per status.
type SpotCounts struct {
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}

// Total returns the number of spots counted.
func (c SpotCounts) Total() int {
	return c.Available + c.Occupied
}

// Add increments the counter of status by n.
func (c *SpotCounts) Add(status SpotStatus, n int) {
	switch status {
	case SpotAvailable:
		c.Available += n
	case SpotOccupied:
		c.Occupied += n
	}
}

// LotSummary pairs a lot with its spot counts.
type LotSummary struct {
	Lot    Lot        `json:"lot"`
	Counts SpotCounts `json:"counts"`
}
