package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	CreateBooking(ctx context.Context, userID, sessionID uuid.UUID, priceCents int64, currency string) (*Booking, error)
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingStatus(ctx context.Context, id uuid.UUID) (string, error)
	CancelBooking(ctx context.Context, id uuid.UUID) error
	MarkCheckedIn(ctx context.Context, id uuid.UUID) error
	CountActiveBookingsForSession(ctx context.Context, sessionID uuid.UUID) (int, error)
	UserHasBookingForSession(ctx context.Context, userID, sessionID uuid.UUID) (bool, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	GetBookingsBySession(ctx context.Context, sessionID uuid.UUID) ([]BookingWithDetails, error)
	GetBookingsByGym(ctx context.Context, gymID uuid.UUID) ([]BookingWithDetails, error)
	GetBookingStatsByDay(ctx context.Context, from, to time.Time) ([]BookingStatsByBucket, error)
	GetBookingStatsByGym(ctx context.Context, from, to time.Time) ([]BookingStatsByGym, error)
}
