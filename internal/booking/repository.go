package booking

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrBookingNotFoundOrAlreadyCancelled = errors.New("booking not found or already cancelled")
	ErrBookingNotActive                  = errors.New("booking not found or not active")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// newCheckinCode draws a short front-desk code like GF-4F7A2C19. It is a
// human-readable fallback for when a phone screen will not scan, not a
// secret.
func newCheckinCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate check-in code: %w", err)
	}
	return fmt.Sprintf("GF-%X", buf), nil
}

func (r *repository) CreateBooking(ctx context.Context, userID, sessionID uuid.UUID, priceCents int64, currency string) (*Booking, error) {
	code, err := newCheckinCode()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO bookings (user_id, session_id, status, checkin_code, price_cents, currency)
		VALUES ($1, $2, 'active', $3, $4, $5)
		RETURNING id, user_id, session_id, status, checkin_code, price_cents, currency, checked_in_at, created_at
	`

	var booking Booking
	err = r.db.GetContext(ctx, &booking, query, userID, sessionID, code, priceCents, currency)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `
		SELECT id, user_id, session_id, status, checkin_code, price_cents, currency, checked_in_at, created_at
		FROM bookings
		WHERE id = $1
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

// GetBookingStatus returns the booking's lifecycle status, or an empty
// string with a nil error when no such booking exists.
func (r *repository) GetBookingStatus(ctx context.Context, id uuid.UUID) (string, error) {
	query := `SELECT status FROM bookings WHERE id = $1`

	var status string
	err := r.db.GetContext(ctx, &status, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return status, nil
}

func (r *repository) CancelBooking(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBookingNotFoundOrAlreadyCancelled
	}

	return nil
}

// MarkCheckedIn flips an active booking to checked_in and stamps the
// time. The status guard makes a concurrent double scan a no-op race:
// exactly one of them records the check-in.
func (r *repository) MarkCheckedIn(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = 'checked_in', checked_in_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBookingNotActive
	}

	return nil
}

func (r *repository) CountActiveBookingsForSession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE session_id = $1 AND status IN ('active', 'checked_in')
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, sessionID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repository) UserHasBookingForSession(ctx context.Context, userID, sessionID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND session_id = $2 AND status IN ('active', 'checked_in')
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, sessionID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	query := `
		SELECT id, user_id, session_id, status, checkin_code, price_cents, currency, checked_in_at, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, query, userID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) GetBookingsBySession(ctx context.Context, sessionID uuid.UUID) ([]BookingWithDetails, error) {
	query := `
		SELECT
			b.id,
			b.user_id,
			b.session_id,
			b.status,
			b.checkin_code,
			b.price_cents,
			b.currency,
			b.checked_in_at,
			b.created_at,
			s.title AS session_title,
			s.start_time AS session_start,
			s.end_time AS session_end,
			g.name AS gym_name,
			g.location AS gym_location,
			u.name AS user_name,
			u.email AS user_email
		FROM bookings b
		JOIN sessions s ON b.session_id = s.id
		JOIN gyms g ON s.gym_id = g.id
		JOIN users u ON b.user_id = u.id
		WHERE b.session_id = $1
		ORDER BY b.created_at DESC
	`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query, sessionID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) GetBookingsByGym(ctx context.Context, gymID uuid.UUID) ([]BookingWithDetails, error) {
	query := `
		SELECT
			b.id,
			b.user_id,
			b.session_id,
			b.status,
			b.checkin_code,
			b.price_cents,
			b.currency,
			b.checked_in_at,
			b.created_at,
			s.title AS session_title,
			s.start_time AS session_start,
			s.end_time AS session_end,
			g.name AS gym_name,
			g.location AS gym_location,
			u.name AS user_name,
			u.email AS user_email
		FROM bookings b
		JOIN sessions s ON b.session_id = s.id
		JOIN gyms g ON s.gym_id = g.id
		JOIN users u ON b.user_id = u.id
		WHERE g.id = $1
		ORDER BY s.start_time DESC, b.created_at DESC
	`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query, gymID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) GetBookingStatsByDay(ctx context.Context, from, to time.Time) ([]BookingStatsByBucket, error) {
	query := `
SELECT
  DATE(created_at) AS bucket,
  COUNT(*)                                       AS bookings_created,
  COUNT(*) FILTER (WHERE status = 'cancelled')   AS bookings_cancelled,
  COUNT(*) FILTER (WHERE status = 'checked_in')  AS check_ins
FROM bookings
WHERE created_at BETWEEN $1 AND $2
GROUP BY DATE(created_at)
ORDER BY bucket;
`
	var stats []BookingStatsByBucket
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) GetBookingStatsByGym(ctx context.Context, from, to time.Time) ([]BookingStatsByGym, error) {
	// Date bound sits in the join condition so gyms without bookings in
	// the window still show up with zero counts.
	query := `
SELECT
  g.id   AS gym_id,
  g.name AS gym_name,
  COUNT(b.id)                                        AS bookings_created,
  COUNT(b.id) FILTER (WHERE b.status = 'cancelled')  AS bookings_cancelled,
  COUNT(b.id) FILTER (WHERE b.status = 'checked_in') AS check_ins
FROM gyms g
LEFT JOIN sessions s ON s.gym_id = g.id
LEFT JOIN bookings b ON b.session_id = s.id AND b.created_at BETWEEN $1 AND $2
GROUP BY g.id, g.name
ORDER BY g.name;
`
	var stats []BookingStatsByGym
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}
