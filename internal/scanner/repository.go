package scanner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateScan(ctx context.Context, gymID uuid.UUID, bookingID, userID *uuid.UUID, status string, allowed bool) (*Scan, error) {
	query := `
		INSERT INTO scans (gym_id, booking_id, user_id, status, allowed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, gym_id, booking_id, user_id, status, allowed, scanned_at
	`

	var scan Scan
	err := r.db.GetContext(ctx, &scan, query, gymID, bookingID, userID, status, allowed)
	if err != nil {
		return nil, err
	}

	return &scan, nil
}

func (r *repository) GetScansByGym(ctx context.Context, gymID uuid.UUID, limit, offset int) ([]Scan, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, gym_id, booking_id, user_id, status, allowed, scanned_at
		FROM scans
		WHERE gym_id = $1
		ORDER BY scanned_at DESC
		LIMIT $2 OFFSET $3
	`

	var scans []Scan
	err := r.db.SelectContext(ctx, &scans, query, gymID, limit, offset)
	if err != nil {
		return nil, err
	}

	if scans == nil {
		scans = []Scan{}
	}

	return scans, nil
}

func (r *repository) GetScanStats(ctx context.Context, from, to time.Time) ([]ScanStats, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM scans
		WHERE scanned_at BETWEEN $1 AND $2
		GROUP BY status
		ORDER BY count DESC
	`

	var stats []ScanStats
	err := r.db.SelectContext(ctx, &stats, query, from, to)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
