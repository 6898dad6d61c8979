package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/models"
	"vehicleparking/backend/services/parking-service/internal/repository"
)

const maxSpotsPerLot = 10000

// LotStore defines lot persistence used by the lot service.
type LotStore interface {
	CreateWithSpots(ctx context.Context, lot *models.Lot) error
	Get(ctx context.Context, id int64) (*models.Lot, error)
	Update(ctx context.Context, lot *models.Lot) error
	Delete(ctx context.Context, id int64) error
	ListWithCounts(ctx context.Context) ([]models.LotSummary, error)
	Counts(ctx context.Context, lotID int64) (models.SpotCounts, error)
}

// LotInput carries the admin-provided lot fields.
type LotInput struct {
	Name         string
	Address      string
	PinCode      string
	PricePerHour float64
	MaxSpots     int
}

// LotService manages the lot inventory. Every operation requires an admin principal.
type LotService struct {
	store    LotStore
	notifier AvailabilityNotifier
	logger   *zap.Logger
}

// NewLotService builds service.
func NewLotService(store LotStore, notifier AvailabilityNotifier, logger *zap.Logger) *LotService {
	return &LotService{
		store:    store,
		notifier: notifierOrNoop(notifier),
		logger:   logger,
	}
}

// CreateLot creates a lot together with MaxSpots available spots.
func (s *LotService) CreateLot(ctx context.Context, p models.Principal, in LotInput) (*models.Lot, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	in = normalizeLotInput(in)
	if err := validateLotFields(in.Name, in.PricePerHour); err != nil {
		return nil, err
	}
	if in.MaxSpots <= 0 || in.MaxSpots > maxSpotsPerLot {
		return nil, invalid("max_spots", fmt.Sprintf("must be between 1 and %d", maxSpotsPerLot))
	}

	lot := &models.Lot{
		Name:         in.Name,
		Address:      in.Address,
		PinCode:      in.PinCode,
		PricePerHour: in.PricePerHour,
		MaxSpots:     in.MaxSpots,
	}
	if err := s.store.CreateWithSpots(ctx, lot); err != nil {
		return nil, err
	}

	s.logger.Info("lot created",
		zap.Int64("lot_id", lot.ID),
		zap.String("name", lot.Name),
		zap.Int("max_spots", lot.MaxSpots),
		zap.Int64("admin_id", p.AccountID),
	)
	s.notifier.Publish(models.AvailabilityUpdate{
		LotID:     lot.ID,
		LotName:   lot.Name,
		Available: lot.MaxSpots,
	})
	return lot, nil
}

// GetLot returns a lot by id.
func (s *LotService) GetLot(ctx context.Context, p models.Principal, lotID int64) (*models.Lot, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	lot, err := s.store.Get(ctx, lotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return lot, err
}

// EditLot updates the mutable fields of a lot. MaxSpots in the input is ignored.
func (s *LotService) EditLot(ctx context.Context, p models.Principal, lotID int64, in LotInput) (*models.Lot, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	in = normalizeLotInput(in)
	if err := validateLotFields(in.Name, in.PricePerHour); err != nil {
		return nil, err
	}

	lot := &models.Lot{
		ID:           lotID,
		Name:         in.Name,
		Address:      in.Address,
		PinCode:      in.PinCode,
		PricePerHour: in.PricePerHour,
	}
	if err := s.store.Update(ctx, lot); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.logger.Info("lot updated", zap.Int64("lot_id", lot.ID), zap.Float64("price_per_hour", lot.PricePerHour))
	s.publishCounts(ctx, lot)
	return lot, nil
}

// DeleteLot removes a lot and its spots unless a spot is occupied.
func (s *LotService) DeleteLot(ctx context.Context, p models.Principal, lotID int64) error {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, lotID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, repository.ErrLotOccupied):
			return ErrLotOccupied
		default:
			return err
		}
	}

	s.logger.Info("lot deleted", zap.Int64("lot_id", lotID), zap.Int64("admin_id", p.AccountID))
	s.notifier.Publish(models.AvailabilityUpdate{LotID: lotID, Deleted: true})
	return nil
}

// ListLotsWithSpotCounts returns every lot with its per-status spot counts.
func (s *LotService) ListLotsWithSpotCounts(ctx context.Context, p models.Principal) ([]models.LotSummary, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListWithCounts(ctx)
}

// Snapshot returns the availability of every lot. It needs no principal and feeds
// the public availability stream.
func (s *LotService) Snapshot(ctx context.Context) ([]models.AvailabilityUpdate, error) {
	summaries, err := s.store.ListWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	updates := make([]models.AvailabilityUpdate, 0, len(summaries))
	for _, summary := range summaries {
		updates = append(updates, models.UpdateFromSummary(summary))
	}
	return updates, nil
}

func (s *LotService) publishCounts(ctx context.Context, lot *models.Lot) {
	counts, err := s.store.Counts(ctx, lot.ID)
	if err != nil {
		s.logger.Warn("failed to load spot counts", zap.Int64("lot_id", lot.ID), zap.Error(err))
		return
	}
	s.notifier.Publish(models.UpdateFromSummary(models.LotSummary{Lot: *lot, Counts: counts}))
}

func normalizeLotInput(in LotInput) LotInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.PinCode = strings.TrimSpace(in.PinCode)
	return in
}

func validateLotFields(name string, pricePerHour float64) error {
	if name == "" {
		return invalid("name", "is required")
	}
	if math.IsNaN(pricePerHour) || math.IsInf(pricePerHour, 0) || pricePerHour <= 0 {
		return invalid("price_per_hour", "must be a positive number")
	}
	return nil
}
