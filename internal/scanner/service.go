package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gymflex/internal/auth"
	"gymflex/internal/booking"
	"gymflex/internal/checkin"
	"gymflex/internal/gym"
	"gymflex/internal/logger"
	"gymflex/internal/metrics"
)

var (
	ErrGymNotFound = errors.New("gym not found")
	ErrNotYourGym  = errors.New("gym does not belong to caller")
)

type Service interface {
	Scan(ctx context.Context, userID uuid.UUID, role string, req ScanRequest) (*ScanResponse, error)
	GetScansByGym(ctx context.Context, userID uuid.UUID, role string, gymID uuid.UUID, limit, offset int) ([]Scan, error)
	GetScanStats(ctx context.Context, from, to time.Time) ([]ScanStats, error)
}

type service struct {
	scanRepo    Repository
	gymRepo     gym.Repository
	bookingRepo booking.Repository
	validator   *checkin.Validator
	source      checkin.BookingSource
}

func NewService(scanRepo Repository, gymRepo gym.Repository, bookingRepo booking.Repository, validator *checkin.Validator) Service {
	return &service{
		scanRepo:    scanRepo,
		gymRepo:     gymRepo,
		bookingRepo: bookingRepo,
		validator:   validator,
		source:      NewBookingSource(bookingRepo),
	}
}

func (s *service) authorizeGym(ctx context.Context, gymID, userID uuid.UUID, role string) error {
	if _, err := s.gymRepo.GetGymByID(ctx, gymID); err != nil {
		return ErrGymNotFound
	}

	if role == auth.RoleAdmin {
		return nil
	}

	owned, err := s.gymRepo.GymOwnedBy(ctx, gymID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotYourGym
	}

	return nil
}

// Scan validates a raw QR string against the caller's gym, records the
// attempt, and on an approved first scan marks the booking checked in.
// Every completed validation returns a response, denied ones included;
// an error means the validation itself could not run.
func (s *service) Scan(ctx context.Context, userID uuid.UUID, role string, req ScanRequest) (*ScanResponse, error) {
	gymID, err := uuid.Parse(req.GymID)
	if err != nil {
		return nil, ErrGymNotFound
	}

	if err := s.authorizeGym(ctx, gymID, userID, role); err != nil {
		return nil, err
	}

	result, err := s.validator.Validate(ctx, req.Token, gymID.String(), s.source)
	if err != nil {
		return nil, err
	}

	metrics.RecordScan(string(result.Status))

	bookingID := parseOptionalID(result.BookingID)
	memberID := parseOptionalID(result.UserID)
	if _, err := s.scanRepo.CreateScan(ctx, gymID, bookingID, memberID, string(result.Status), result.Allowed()); err != nil {
		// The door decision stands even when the audit insert fails.
		logger.Error("record scan", "gym_id", gymID, "status", result.Status, "error", err)
	}

	if result.Status == checkin.StatusValid && bookingID != nil {
		// ErrBookingNotActive here means another scanner won the race;
		// the member is inside either way.
		err := s.bookingRepo.MarkCheckedIn(ctx, *bookingID)
		if err != nil && !errors.Is(err, booking.ErrBookingNotActive) {
			logger.Error("mark booking checked in", "booking_id", *bookingID, "error", err)
		}
	}

	return &ScanResponse{Result: result, Allowed: result.Allowed()}, nil
}

func (s *service) GetScansByGym(ctx context.Context, userID uuid.UUID, role string, gymID uuid.UUID, limit, offset int) ([]Scan, error) {
	if err := s.authorizeGym(ctx, gymID, userID, role); err != nil {
		return nil, err
	}
	return s.scanRepo.GetScansByGym(ctx, gymID, limit, offset)
}

func (s *service) GetScanStats(ctx context.Context, from, to time.Time) ([]ScanStats, error) {
	return s.scanRepo.GetScanStats(ctx, from, to)
}

func parseOptionalID(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
