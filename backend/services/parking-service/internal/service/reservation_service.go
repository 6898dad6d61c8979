package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/models"
	"vehicleparking/backend/services/parking-service/internal/repository"
)

// ReservationStore defines reservation persistence used by the reservation engine.
type ReservationStore interface {
	WithinTx(ctx context.Context, fn func(tx repository.ReservationTx) error) error
	ActiveView(ctx context.Context, userID int64) (*models.ReservationView, error)
	History(ctx context.Context, userID int64) ([]models.ReservationView, error)
}

// LotLister lists lots with their spot counts.
type LotLister interface {
	ListWithCounts(ctx context.Context) ([]models.LotSummary, error)
}

// Receipt is the outcome of releasing a spot.
type Receipt struct {
	Reservation models.ReservationView `json:"reservation"`
	BilledHours int                    `json:"billed_hours"`
	Cost        float64                `json:"cost"`
}

// LotAvailability pairs a lot with its number of available spots.
type LotAvailability struct {
	Lot       models.Lot `json:"lot"`
	Available int        `json:"available"`
}

// UserDashboard is the data shown to a user.
type UserDashboard struct {
	Username string                   `json:"username"`
	Active   *models.ReservationView  `json:"active_reservation"`
	Lots     []LotAvailability        `json:"lots"`
	History  []models.ReservationView `json:"history"`
}

// ReservationService runs the spot reservation lifecycle. Every operation requires
// a user principal.
type ReservationService struct {
	store    ReservationStore
	lots     LotLister
	notifier AvailabilityNotifier
	now      Clock
	logger   *zap.Logger
}

// NewReservationService builds service. A nil clock uses SystemClock.
func NewReservationService(
	store ReservationStore,
	lots LotLister,
	notifier AvailabilityNotifier,
	now Clock,
	logger *zap.Logger,
) *ReservationService {
	if now == nil {
		now = SystemClock
	}
	return &ReservationService{
		store:    store,
		lots:     lots,
		notifier: notifierOrNoop(notifier),
		now:      now,
		logger:   logger,
	}
}

// Reserve claims the lowest-id available spot of the lot for the user.
func (s *ReservationService) Reserve(ctx context.Context, p models.Principal, lotID int64) (*models.ReservationView, error) {
	if err := requireRole(p, models.RoleUser); err != nil {
		return nil, err
	}
	if lotID <= 0 {
		return nil, invalid("lot_id", "must be positive")
	}

	now := s.now()
	var (
		view   *models.ReservationView
		update models.AvailabilityUpdate
	)
	err := s.store.WithinTx(ctx, func(tx repository.ReservationTx) error {
		lot, err := tx.LockLot(ctx, lotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if _, err := tx.ActiveForUser(ctx, p.AccountID); err == nil {
			return ErrAlreadyActive
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		spot, err := tx.FirstAvailableSpot(ctx, lotID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoAvailableSpot
			}
			return err
		}

		if err := tx.SetSpotStatus(ctx, spot.ID, models.SpotOccupied); err != nil {
			return fmt.Errorf("reserve spot %d: %w", spot.ID, err)
		}

		reservation := models.Reservation{
			SpotID:           spot.ID,
			UserID:           p.AccountID,
			ParkingTimestamp: now,
		}
		if err := tx.Insert(ctx, &reservation); err != nil {
			if errors.Is(err, repository.ErrActiveReservationExists) {
				return ErrAlreadyActive
			}
			return err
		}

		counts, err := tx.SpotCounts(ctx, lotID)
		if err != nil {
			return err
		}

		view = &models.ReservationView{
			Reservation:  reservation,
			LotID:        lot.ID,
			LotName:      lot.Name,
			SpotNumber:   spot.SpotNumber,
			PricePerHour: lot.PricePerHour,
		}
		update = models.UpdateFromSummary(models.LotSummary{Lot: *lot, Counts: counts})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("spot reserved",
		zap.Int64("reservation_id", view.ID),
		zap.Int64("user_id", p.AccountID),
		zap.Int64("lot_id", lotID),
		zap.Int64("spot_id", view.SpotID),
	)
	s.notifier.Publish(update)
	return view, nil
}

// MarkOccupied moves the billing start of the active reservation to now.
func (s *ReservationService) MarkOccupied(ctx context.Context, p models.Principal) (*models.ReservationView, error) {
	if err := requireRole(p, models.RoleUser); err != nil {
		return nil, err
	}

	now := s.now()
	var view *models.ReservationView
	err := s.store.WithinTx(ctx, func(tx repository.ReservationTx) error {
		active, err := tx.ActiveForUser(ctx, p.AccountID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoActiveReservation
			}
			return err
		}
		if err := tx.UpdateParkingTimestamp(ctx, active.ID, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoActiveReservation
			}
			return err
		}
		active.ParkingTimestamp = now
		view = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("spot occupied", zap.Int64("reservation_id", view.ID), zap.Int64("user_id", p.AccountID))
	return view, nil
}

// Release terminates the active reservation, bills it and frees the spot.
func (s *ReservationService) Release(ctx context.Context, p models.Principal) (*Receipt, error) {
	if err := requireRole(p, models.RoleUser); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		receipt *Receipt
		update  models.AvailabilityUpdate
	)
	err := s.store.WithinTx(ctx, func(tx repository.ReservationTx) error {
		active, err := tx.ActiveForUser(ctx, p.AccountID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoActiveReservation
			}
			return err
		}

		hours, cost := ParkingFee(active.ParkingTimestamp, now, active.PricePerHour)
		if err := tx.Close(ctx, active.ID, now, cost); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoActiveReservation
			}
			return err
		}
		if err := tx.SetSpotStatus(ctx, active.SpotID, models.SpotAvailable); err != nil {
			return fmt.Errorf("release spot %d: %w", active.SpotID, err)
		}

		counts, err := tx.SpotCounts(ctx, active.LotID)
		if err != nil {
			return err
		}

		leftAt := now
		active.LeavingTimestamp = &leftAt
		active.ParkingCost = &cost
		receipt = &Receipt{Reservation: *active, BilledHours: hours, Cost: cost}
		update = models.AvailabilityUpdate{
			LotID:     active.LotID,
			LotName:   active.LotName,
			Available: counts.Available,
			Occupied:  counts.Occupied,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("spot released",
		zap.Int64("reservation_id", receipt.Reservation.ID),
		zap.Int64("user_id", p.AccountID),
		zap.Int64("spot_id", receipt.Reservation.SpotID),
		zap.Int("billed_hours", receipt.BilledHours),
		zap.Float64("cost", receipt.Cost),
	)
	s.notifier.Publish(update)
	return receipt, nil
}

// Dashboard returns the user's active reservation, lot availability and full history.
func (s *ReservationService) Dashboard(ctx context.Context, p models.Principal) (*UserDashboard, error) {
	if err := requireRole(p, models.RoleUser); err != nil {
		return nil, err
	}

	active, err := s.store.ActiveView(ctx, p.AccountID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	summaries, err := s.lots.ListWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	lots := make([]LotAvailability, 0, len(summaries))
	for _, summary := range summaries {
		lots = append(lots, LotAvailability{Lot: summary.Lot, Available: summary.Counts.Available})
	}

	history, err := s.store.History(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}

	return &UserDashboard{
		Username: p.Username,
		Active:   active,
		Lots:     lots,
		History:  history,
	}, nil
}
