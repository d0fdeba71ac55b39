package scanner

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	CreateScan(ctx context.Context, gymID uuid.UUID, bookingID, userID *uuid.UUID, status string, allowed bool) (*Scan, error)
	GetScansByGym(ctx context.Context, gymID uuid.UUID, limit, offset int) ([]Scan, error)
	GetScanStats(ctx context.Context, from, to time.Time) ([]ScanStats, error)
}
