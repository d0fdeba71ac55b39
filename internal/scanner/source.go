package scanner

import (
	"context"

	"github.com/google/uuid"

	"gymflex/internal/booking"
	"gymflex/internal/checkin"
)

// bookingSource adapts the booking repository to the validator's lookup
// interface.
type bookingSource struct {
	repo booking.Repository
}

func NewBookingSource(repo booking.Repository) checkin.BookingSource {
	return &bookingSource{repo: repo}
}

func (s *bookingSource) BookingStatus(ctx context.Context, bookingID string) (checkin.BookingStatus, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		// A structurally fine token can still carry an arbitrary string
		// here; treat it as a booking we have no record of.
		return checkin.BookingUnknown, nil
	}

	status, err := s.repo.GetBookingStatus(ctx, id)
	if err != nil {
		return checkin.BookingUnknown, err
	}

	return checkin.BookingStatus(status), nil
}
