package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	libdb "vehicleparking/backend/libs/db"
	"vehicleparking/backend/services/parking-service/internal/models"
)

// LotRepository handles parking lots and their spot inventory.
type LotRepository struct {
	db *sql.DB
}

// NewLotRepository returns repository.
func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{db: db}
}

// CreateWithSpots inserts the lot and lot.MaxSpots available spots in one transaction.
func (r *LotRepository) CreateWithSpots(ctx context.Context, lot *models.Lot) error {
	return libdb.RunInTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		const insertLot = `
			INSERT INTO parking_lots (name, address, pin_code, price_per_hour, max_spots)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`
		if err := tx.QueryRowContext(ctx, insertLot,
			lot.Name,
			lot.Address,
			lot.PinCode,
			lot.PricePerHour,
			lot.MaxSpots,
		).Scan(&lot.ID, &lot.CreatedAt); err != nil {
			return err
		}

		const insertSpots = `
			INSERT INTO parking_spots (lot_id, spot_number, status)
			SELECT $1, n::text, 'A'
			FROM generate_series(1, $2::int) AS n
		`
		result, err := tx.ExecContext(ctx, insertSpots, lot.ID, lot.MaxSpots)
		if err != nil {
			return err
		}
		created, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if created != int64(lot.MaxSpots) {
			return fmt.Errorf("lot repository: created %d spots, want %d", created, lot.MaxSpots)
		}
		return nil
	})
}

// Get fetches a lot by id.
func (r *LotRepository) Get(ctx context.Context, id int64) (*models.Lot, error) {
	const query = `
		SELECT id, name, address, pin_code, price_per_hour, max_spots, created_at
		FROM parking_lots
		WHERE id = $1
	`
	var lot models.Lot
	err := r.db.QueryRowContext(ctx, query, id).Scan(
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

// Update changes the mutable lot fields. MaxSpots and CreatedAt are refreshed from the row.
func (r *LotRepository) Update(ctx context.Context, lot *models.Lot) error {
	const query = `
		UPDATE parking_lots
		SET name = $2,
		    address = $3,
		    pin_code = $4,
		    price_per_hour = $5
		WHERE id = $1
		RETURNING max_spots, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		lot.ID,
		lot.Name,
		lot.Address,
		lot.PinCode,
		lot.PricePerHour,
	).Scan(&lot.MaxSpots, &lot.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a lot, its spots and their reservation history. It fails with
// ErrLotOccupied while any spot of the lot is occupied.
func (r *LotRepository) Delete(ctx context.Context, id int64) error {
	return libdb.RunInTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var lockedID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM parking_lots WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		var occupied int
		const countOccupied = `
			SELECT COUNT(*) FROM parking_spots
			WHERE lot_id = $1 AND status = 'O'
		`
		if err := tx.QueryRowContext(ctx, countOccupied, id).Scan(&occupied); err != nil {
			return err
		}
		if occupied > 0 {
			return ErrLotOccupied
		}

		statements := []string{
			`DELETE FROM reservations WHERE spot_id IN (SELECT id FROM parking_spots WHERE lot_id = $1)`,
			`DELETE FROM parking_spots WHERE lot_id = $1`,
			`DELETE FROM parking_lots WHERE id = $1`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListWithCounts returns every lot with its per-status spot counts, ordered by id.
func (r *LotRepository) ListWithCounts(ctx context.Context) ([]models.LotSummary, error) {
	const query = `
		SELECT l.id, l.name, l.address, l.pin_code, l.price_per_hour, l.max_spots, l.created_at,
		       COUNT(s.id) FILTER (WHERE s.status = 'A') AS available,
		       COUNT(s.id) FILTER (WHERE s.status = 'O') AS occupied
		FROM parking_lots l
		LEFT JOIN parking_spots s ON s.lot_id = l.id
		GROUP BY l.id
		ORDER BY l.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.LotSummary, 0)
	for rows.Next() {
		var s models.LotSummary
		if err := rows.Scan(
			&s.Lot.ID,
			&s.Lot.Name,
			&s.Lot.Address,
			&s.Lot.PinCode,
			&s.Lot.PricePerHour,
			&s.Lot.MaxSpots,
			&s.Lot.CreatedAt,
			&s.Counts.Available,
			&s.Counts.Occupied,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Counts returns the per-status spot counts of one lot.
func (r *LotRepository) Counts(ctx context.Context, lotID int64) (models.SpotCounts, error) {
	return spotCounts(ctx, r.db, lotID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func spotCounts(ctx context.Context, q queryer, lotID int64) (models.SpotCounts, error) {
	const query = `
		SELECT status, COUNT(*)
		FROM parking_spots
		WHERE lot_id = $1
		GROUP BY status
	`
	var counts models.SpotCounts
	rows, err := q.QueryContext(ctx, query, lotID)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			raw string
			n   int
		)
		if err := rows.Scan(&raw, &n); err != nil {
			return counts, err
		}
		status, err := models.ParseSpotStatus(raw)
		if err != nil {
			return counts, err
		}
		counts.Add(status, n)
	}
	return counts, rows.Err()
}
