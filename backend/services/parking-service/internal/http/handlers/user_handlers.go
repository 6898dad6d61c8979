package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/http/middleware"
	"vehicleparking/backend/services/parking-service/internal/models"
	"vehicleparking/backend/services/parking-service/internal/service"
)

// ReservationManager is the user-facing reservation lifecycle.
type ReservationManager interface {
	Reserve(ctx context.Context, p models.Principal, lotID int64) (*models.ReservationView, error)
	MarkOccupied(ctx context.Context, p models.Principal) (*models.ReservationView, error)
	Release(ctx context.Context, p models.Principal) (*service.Receipt, error)
	Dashboard(ctx context.Context, p models.Principal) (*service.UserDashboard, error)
}

// UserHandlers serves the user dashboard and reservation actions.
type UserHandlers struct {
	reservations ReservationManager
	logger       *zap.Logger
}

// NewUserHandlers returns handler.
func NewUserHandlers(reservations ReservationManager, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{reservations: reservations, logger: logger}
}

// Dashboard handles GET /api/user/dashboard.
func (h *UserHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	dash, err := h.reservations.Dashboard(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// Reserve handles POST /api/user/lots/{id}/reserve.
func (h *UserHandlers) Reserve(w http.ResponseWriter, r *http.Request) {
	lotID, ok := lotIDFromPath(w, r)
	if !ok {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())
	reservation, err := h.reservations.Reserve(r.Context(), p, lotID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

// Occupy handles POST /api/user/reservation/occupy.
func (h *UserHandlers) Occupy(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	reservation, err := h.reservations.MarkOccupied(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

// Release handles POST /api/user/reservation/release.
func (h *UserHandlers) Release(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	receipt, err := h.reservations.Release(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
