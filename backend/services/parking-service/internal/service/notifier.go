package service

import "vehicleparking/backend/services/parking-service/internal/models"

// AvailabilityNotifier receives lot availability after committed changes.
type AvailabilityNotifier interface {
	Publish(update models.AvailabilityUpdate)
}

type noopNotifier struct{}

func (noopNotifier) Publish(models.AvailabilityUpdate) {}

func notifierOrNoop(n AvailabilityNotifier) AvailabilityNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
