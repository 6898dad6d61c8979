package models

// AvailabilityUpdate describes the spot counts of a lot after a committed change.
type AvailabilityUpdate struct {
	LotID     int64  `json:"lot_id"`
	LotName   string `json:"lot_name,omitempty"`
	Available int    `json:"available"`
	Occupied  int    `json:"occupied"`
	Deleted   bool   `json:"deleted,omitempty"`
}

// UpdateFromSummary converts a lot summary into an availability update.
func UpdateFromSummary(s LotSummary) AvailabilityUpdate {
	return AvailabilityUpdate{
		LotID:     s.Lot.ID,
		LotName:   s.Lot.Name,
		Available: s.Counts.Available,
		Occupied:  s.Counts.Occupied,
	}
}
