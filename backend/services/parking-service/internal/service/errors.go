package service

import (
	"errors"
	"fmt"

	"vehicleparking/backend/services/parking-service/internal/models"
)

var (
	// ErrDuplicateUsername is returned when registering a taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotFound is returned when a lot does not exist.
	ErrNotFound = errors.New("parking lot not found")
	// ErrAlreadyActive is returned when the user already holds an active reservation.
	ErrAlreadyActive = errors.New("you already have an active reservation")
	// ErrNoAvailableSpot is returned when every spot of the lot is occupied.
	ErrNoAvailableSpot = errors.New("no spots available in this parking lot")
	// ErrLotOccupied is returned when deleting a lot with occupied spots.
	ErrLotOccupied = errors.New("cannot delete lot while spots are occupied")
	// ErrNoActiveReservation is returned when the user holds no active reservation.
	ErrNoActiveReservation = errors.New("no active reservation found")
	// ErrUnauthorized is returned when the caller lacks a session or the required role.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func requireRole(p models.Principal, role models.Role) error {
	if !p.Is(role) {
		return ErrUnauthorized
	}
	return nil
}
