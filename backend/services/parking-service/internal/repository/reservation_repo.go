package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	libdb "vehicleparking/backend/libs/db"
	"vehicleparking/backend/services/parking-service/internal/models"
)

// ReservationTx exposes the statements of the reservation lifecycle that must run
// inside one transaction.
type ReservationTx interface {
	// LockLot loads the lot and holds its row lock until the transaction ends.
	LockLot(ctx context.Context, lotID int64) (*models.Lot, error)
	// ActiveForUser loads and locks the user's active reservation.
	ActiveForUser(ctx context.Context, userID int64) (*models.ReservationView, error)
	// FirstAvailableSpot returns the lowest-id available spot of the lot.
	FirstAvailableSpot(ctx context.Context, lotID int64) (*models.Spot, error)
	// SetSpotStatus moves a spot into status; it fails with ErrSpotStateConflict
	// when the spot already has that status.
	SetSpotStatus(ctx context.Context, spotID int64, status models.SpotStatus) error
	Insert(ctx context.Context, reservation *models.Reservation) error
	UpdateParkingTimestamp(ctx context.Context, reservationID int64, at time.Time) error
	// Close terminates an active reservation.
	Close(ctx context.Context, reservationID int64, leftAt time.Time, cost float64) error
	SpotCounts(ctx context.Context, lotID int64) (models.SpotCounts, error)
}

// ReservationRepository persists reservations.
type ReservationRepository struct {
	db *sql.DB
}

// NewReservationRepository returns repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// WithinTx runs fn in a transaction; any error returned by fn rolls it back.
func (r *ReservationRepository) WithinTx(ctx context.Context, fn func(tx ReservationTx) error) error {
	return libdb.RunInTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		return fn(&reservationTx{tx: tx})
	})
}

const reservationViewColumns = `
	r.id, r.spot_id, r.user_id, r.parking_timestamp, r.leaving_timestamp, r.parking_cost,
	s.lot_id, l.name, COALESCE(s.spot_number, ''), l.price_per_hour
`

const reservationViewFrom = `
	FROM reservations r
	JOIN parking_spots s ON s.id = r.spot_id
	JOIN parking_lots l ON l.id = s.lot_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservationView(row rowScanner) (*models.ReservationView, error) {
	var (
		v       models.ReservationView
		leaving sql.NullTime
		cost    sql.NullFloat64
	)
	if err := row.Scan(
		&v.ID,
		&v.SpotID,
		&v.UserID,
		&v.ParkingTimestamp,
		&leaving,
		&cost,
		&v.LotID,
		&v.LotName,
		&v.SpotNumber,
		&v.PricePerHour,
	); err != nil {
		return nil, err
	}
	if leaving.Valid {
		t := leaving.Time
		v.LeavingTimestamp = &t
	}
	if cost.Valid {
		c := cost.Float64
		v.ParkingCost = &c
	}
	return &v, nil
}

// ActiveView returns the user's active reservation joined with its lot.
func (r *ReservationRepository) ActiveView(ctx context.Context, userID int64) (*models.ReservationView, error) {
	query := `SELECT ` + reservationViewColumns + reservationViewFrom + `
		WHERE r.user_id = $1 AND r.leaving_timestamp IS NULL
	`
	v, err := scanReservationView(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// History returns the user's released reservations, newest parking time first.
func (r *ReservationRepository) History(ctx context.Context, userID int64) ([]models.ReservationView, error) {
	query := `SELECT ` + reservationViewColumns + reservationViewFrom + `
		WHERE r.user_id = $1 AND r.leaving_timestamp IS NOT NULL
		ORDER BY r.parking_timestamp DESC, r.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]models.ReservationView, 0)
	for rows.Next() {
		v, err := scanReservationView(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

type reservationTx struct {
	tx *sql.Tx
}

func (t *reservationTx) LockLot(ctx context.Context, lotID int64) (*models.Lot, error) {
	const query = `
		SELECT id, name, address, pin_code, price_per_hour, max_spots, created_at
		FROM parking_lots
		WHERE id = $1
		FOR UPDATE
	`
	var lot models.Lot
	err := t.tx.QueryRowContext(ctx, query, lotID).Scan(
		&lot.ID,
		&lot.Name,
		&lot.Address,
		&lot.PinCode,
		&lot.PricePerHour,
		&lot.MaxSpots,
		&lot.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

func (t *reservationTx) ActiveForUser(ctx context.Context, userID int64) (*models.ReservationView, error) {
	query := `SELECT ` + reservationViewColumns + reservationViewFrom + `
		WHERE r.user_id = $1 AND r.leaving_timestamp IS NULL
		FOR UPDATE OF r
	`
	v, err := scanReservationView(t.tx.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (t *reservationTx) FirstAvailableSpot(ctx context.Context, lotID int64) (*models.Spot, error) {
	const query = `
		SELECT id, lot_id, COALESCE(spot_number, ''), status
		FROM parking_spots
		WHERE lot_id = $1 AND status = 'A'
		ORDER BY id ASC
		LIMIT 1
	`
	var (
		spot models.Spot
		raw  string
	)
	err := t.tx.QueryRowContext(ctx, query, lotID).Scan(&spot.ID, &spot.LotID, &spot.SpotNumber, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if spot.Status, err = models.ParseSpotStatus(raw); err != nil {
		return nil, err
	}
	return &spot, nil
}

func (t *reservationTx) SetSpotStatus(ctx context.Context, spotID int64, status models.SpotStatus) error {
	const query = `
		UPDATE parking_spots
		SET status = $2
		WHERE id = $1 AND status <> $2
	`
	result, err := t.tx.ExecContext(ctx, query, spotID, string(status))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSpotStateConflict
	}
	return nil
}

func (t *reservationTx) Insert(ctx context.Context, reservation *models.Reservation) error {
	const query = `
		INSERT INTO reservations (spot_id, user_id, parking_timestamp)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query,
		reservation.SpotID,
		reservation.UserID,
		reservation.ParkingTimestamp,
	).Scan(&reservation.ID)
	if uniqueViolation(err, activeUserReservationIndex, activeSpotReservationIndex) {
		return ErrActiveReservationExists
	}
	return err
}

func (t *reservationTx) UpdateParkingTimestamp(ctx context.Context, reservationID int64, at time.Time) error {
	const query = `
		UPDATE reservations
		SET parking_timestamp = $2
		WHERE id = $1 AND leaving_timestamp IS NULL
	`
	return t.execOne(ctx, query, reservationID, at)
}

func (t *reservationTx) Close(ctx context.Context, reservationID int64, leftAt time.Time, cost float64) error {
	const query = `
		UPDATE reservations
		SET leaving_timestamp = $2,
		    parking_cost = $3
		WHERE id = $1 AND leaving_timestamp IS NULL
	`
	return t.execOne(ctx, query, reservationID, leftAt, cost)
}

func (t *reservationTx) SpotCounts(ctx context.Context, lotID int64) (models.SpotCounts, error) {
	return spotCounts(ctx, t.tx, lotID)
}

func (t *reservationTx) execOne(ctx context.Context, query string, args ...any) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
