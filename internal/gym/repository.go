package gym

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gymflex/internal/db"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) CreateGym(ctx context.Context, name, location string, ownerID uuid.UUID) (*Gym, error) {
	query := `
		INSERT INTO gyms (name, location, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, location, owner_id, created_at
	`

	var gym Gym
	err := r.db.GetContext(ctx, &gym, query, name, location, ownerID)
	if err != nil {
		return nil, err
	}

	return &gym, nil
}

func (r *repository) GetAllGyms(ctx context.Context) ([]Gym, error) {
	query := `
		SELECT id, name, location, owner_id, created_at
		FROM gyms
		ORDER BY created_at DESC
	`

	var gyms []Gym
	err := r.db.SelectContext(ctx, &gyms, query)
	if err != nil {
		return nil, err
	}

	return gyms, nil
}

func (r *repository) GetGymByID(ctx context.Context, id uuid.UUID) (*Gym, error) {
	query := `
		SELECT id, name, location, owner_id, created_at
		FROM gyms
		WHERE id = $1
	`

	var gym Gym
	err := r.db.GetContext(ctx, &gym, query, id)
	if err != nil {
		return nil, err
	}

	return &gym, nil
}

func (r *repository) GymOwnedBy(ctx context.Context, gymID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM gyms
			WHERE id = $1 AND owner_id = $2
		)
	`
	return db.Exists(ctx, r.db, query, gymID, userID)
}

func (r *repository) CreateSession(ctx context.Context, gymID uuid.UUID, title string, startTime, endTime time.Time, capacity int, priceCents int64, currency string) (*Session, error) {
	query := `
		INSERT INTO sessions (gym_id, title, start_time, end_time, capacity, price_cents, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, gym_id, title, start_time, end_time, capacity, price_cents, currency, created_at
	`

	var session Session
	err := r.db.GetContext(ctx, &session, query, gymID, title, startTime, endTime, capacity, priceCents, currency)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *repository) GetSessionsByGym(ctx context.Context, gymID uuid.UUID, onlyFuture bool) ([]Session, error) {
	query := `
		SELECT id, gym_id, title, start_time, end_time, capacity, price_cents, currency, created_at
		FROM sessions
		WHERE gym_id = $1
	`
	args := []interface{}{gymID}

	if onlyFuture {
		query += " AND start_time > NOW()"
	}

	query += " ORDER BY start_time ASC"

	var sessions []Session
	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `
		SELECT id, gym_id, title, start_time, end_time, capacity, price_cents, currency, created_at
		FROM sessions
		WHERE id = $1
	`

	var session Session
	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *repository) GetSessionsWithAvailability(ctx context.Context, gymID uuid.UUID, onlyFuture bool) ([]SessionWithAvailability, error) {
	query := `
		SELECT
			s.id, s.gym_id, s.title, s.start_time, s.end_time,
			s.capacity, s.price_cents, s.currency, s.created_at,
			COUNT(b.id) FILTER (WHERE b.status IN ('active', 'checked_in')) AS booked_count
		FROM sessions s
		LEFT JOIN bookings b ON b.session_id = s.id
		WHERE s.gym_id = $1
	`
	args := []interface{}{gymID}

	if onlyFuture {
		query += " AND s.start_time > NOW()"
	}

	query += `
		GROUP BY s.id
		ORDER BY s.start_time ASC
	`

	var sessions []SessionWithAvailability
	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		sessions[i].Available = sessions[i].Capacity - sessions[i].BookedCount
		sessions[i].IsFull = sessions[i].Available <= 0
	}

	return sessions, nil
}
