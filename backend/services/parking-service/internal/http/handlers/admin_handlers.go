package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/http/middleware"
	"vehicleparking/backend/services/parking-service/internal/models"
	"vehicleparking/backend/services/parking-service/internal/service"
)

// LotManager is the admin lot inventory.
type LotManager interface {
	CreateLot(ctx context.Context, p models.Principal, in service.LotInput) (*models.Lot, error)
	GetLot(ctx context.Context, p models.Principal, lotID int64) (*models.Lot, error)
	EditLot(ctx context.Context, p models.Principal, lotID int64, in service.LotInput) (*models.Lot, error)
	DeleteLot(ctx context.Context, p models.Principal, lotID int64) error
	ListLotsWithSpotCounts(ctx context.Context, p models.Principal) ([]models.LotSummary, error)
}

// AdminHandlers serves the admin dashboard and lot management.
type AdminHandlers struct {
	lots   LotManager
	logger *zap.Logger
}

// NewAdminHandlers returns handler.
func NewAdminHandlers(lots LotManager, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{lots: lots, logger: logger}
}

type lotRequest struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	PinCode      string  `json:"pin_code"`
	PricePerHour float64 `json:"price_per_hour"`
	MaxSpots     int     `json:"max_spots"`
}

func (req lotRequest) input() service.LotInput {
	return service.LotInput{
		Name:         req.Name,
		Address:      req.Address,
		PinCode:      req.PinCode,
		PricePerHour: req.PricePerHour,
		MaxSpots:     req.MaxSpots,
	}
}

type lotSummaryResponse struct {
	models.Lot
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	summaries, err := h.lots.ListLotsWithSpotCounts(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	lots := make([]lotSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		lots = append(lots, lotSummaryResponse{Lot: s.Lot, Available: s.Counts.Available, Occupied: s.Counts.Occupied})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lots": lots})
}

// CreateLot handles POST /api/admin/lots.
func (h *AdminHandlers) CreateLot(w http.ResponseWriter, r *http.Request) {
	var req lotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())
	lot, err := h.lots.CreateLot(r.Context(), p, req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, lot)
}

// GetLot handles GET /api/admin/lots/{id}.
func (h *AdminHandlers) GetLot(w http.ResponseWriter, r *http.Request) {
	lotID, ok := lotIDFromPath(w, r)
	if !ok {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())
	lot, err := h.lots.GetLot(r.Context(), p, lotID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

// EditLot handles PUT /api/admin/lots/{id}. max_spots in the body is ignored.
func (h *AdminHandlers) EditLot(w http.ResponseWriter, r *http.Request) {
	lotID, ok := lotIDFromPath(w, r)
	if !ok {
		return
	}
	var req lotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())
	lot, err := h.lots.EditLot(r.Context(), p, lotID, req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

// DeleteLot handles DELETE /api/admin/lots/{id}.
func (h *AdminHandlers) DeleteLot(w http.ResponseWriter, r *http.Request) {
	lotID, ok := lotIDFromPath(w, r)
	if !ok {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())
	if err := h.lots.DeleteLot(r.Context(), p, lotID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
