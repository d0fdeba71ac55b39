package gym

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGymNotFound     = errors.New("gym not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInvalid  = errors.New("invalid session")
)

type Service interface {
	CreateGym(ctx context.Context, ownerID uuid.UUID, req CreateGymRequest) (*Gym, error)
	GetAllGyms(ctx context.Context) ([]Gym, error)
	GetGymByID(ctx context.Context, id uuid.UUID) (*Gym, error)
	OwnedBy(ctx context.Context, gymID, userID uuid.UUID) (bool, error)
	CreateSession(ctx context.Context, gymID uuid.UUID, req CreateSessionRequest) (*Session, error)
	GetSessions(ctx context.Context, gymID uuid.UUID, onlyFuture bool) ([]SessionWithAvailability, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) CreateGym(ctx context.Context, ownerID uuid.UUID, req CreateGymRequest) (*Gym, error) {
	return s.repo.CreateGym(ctx, req.Name, req.Location, ownerID)
}

func (s *service) GetAllGyms(ctx context.Context) ([]Gym, error) {
	return s.repo.GetAllGyms(ctx)
}

func (s *service) GetGymByID(ctx context.Context, id uuid.UUID) (*Gym, error) {
	gym, err := s.repo.GetGymByID(ctx, id)
	if err != nil {
		return nil, ErrGymNotFound
	}
	return gym, nil
}

func (s *service) OwnedBy(ctx context.Context, gymID, userID uuid.UUID) (bool, error) {
	return s.repo.GymOwnedBy(ctx, gymID, userID)
}

func (s *service) CreateSession(ctx context.Context, gymID uuid.UUID, req CreateSessionRequest) (*Session, error) {
	_, err := s.repo.GetGymByID(ctx, gymID)
	if err != nil {
		return nil, ErrGymNotFound
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	// Whole-minute windows only; check-in tokens carry the session length
	// in minutes and must round-trip exactly.
	window := endTime.Sub(startTime)
	if window <= 0 || window%time.Minute != 0 {
		return nil, ErrSessionInvalid
	}

	if req.Capacity <= 0 {
		return nil, ErrSessionInvalid
	}

	if req.PriceCents < 0 {
		return nil, ErrSessionInvalid
	}

	return s.repo.CreateSession(ctx, gymID, req.Title, startTime, endTime, req.Capacity, req.PriceCents, DefaultCurrency)
}

func (s *service) GetSessions(ctx context.Context, gymID uuid.UUID, onlyFuture bool) ([]SessionWithAvailability, error) {
	_, err := s.repo.GetGymByID(ctx, gymID)
	if err != nil {
		return nil, ErrGymNotFound
	}

	return s.repo.GetSessionsWithAvailability(ctx, gymID, onlyFuture)
}

func (s *service) GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := s.repo.GetSessionByID(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
