package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound represents missing rows.
	ErrNotFound = errors.New("repository: not found")
	// ErrUsernameTaken is returned when the username unique constraint fires.
	ErrUsernameTaken = errors.New("repository: username taken")
	// ErrLotOccupied is returned when deleting a lot with occupied spots.
	ErrLotOccupied = errors.New("repository: lot has occupied spots")
	// ErrActiveReservationExists is returned when a user or spot already has an active reservation.
	ErrActiveReservationExists = errors.New("repository: active reservation exists")
	// ErrSpotStateConflict is returned when a spot is not in the expected status.
	ErrSpotStateConflict = errors.New("repository: spot state conflict")
)

const (
	uniqueViolationCode = "23505"

	usernameConstraint         = "users_username_key"
	activeUserReservationIndex = "reservations_active_user_uidx"
	activeSpotReservationIndex = "reservations_active_spot_uidx"
)

// uniqueViolation reports whether err is a unique violation on one of constraints.
// With no constraints any unique violation matches.
func uniqueViolation(err error, constraints ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}
