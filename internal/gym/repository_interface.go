package gym

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	CreateGym(ctx context.Context, name, location string, ownerID uuid.UUID) (*Gym, error)
	GetAllGyms(ctx context.Context) ([]Gym, error)
	GetGymByID(ctx context.Context, id uuid.UUID) (*Gym, error)
	GymOwnedBy(ctx context.Context, gymID, userID uuid.UUID) (bool, error)
	CreateSession(ctx context.Context, gymID uuid.UUID, title string, startTime, endTime time.Time, capacity int, priceCents int64, currency string) (*Session, error)
	GetSessionsByGym(ctx context.Context, gymID uuid.UUID, onlyFuture bool) ([]Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetSessionsWithAvailability(ctx context.Context, gymID uuid.UUID, onlyFuture bool) ([]SessionWithAvailability, error)
}
