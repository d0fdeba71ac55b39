package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gymflex/internal/checkin"
	"gymflex/internal/clock"
	"gymflex/internal/email"
	"gymflex/internal/gym"
	"gymflex/internal/logger"
	"gymflex/internal/metrics"
	"gymflex/internal/user"
	"gymflex/internal/wallet"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionInPast     = errors.New("cannot book a session in the past")
	ErrSessionFull       = errors.New("session is full")
	ErrAlreadyBooked     = errors.New("user already has a booking for this session")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrNotYourBooking    = errors.New("can only manage your own bookings")
	ErrTokenNotIssuable  = errors.New("booking is not active")
)

type Service interface {
	BookSession(ctx context.Context, userID, sessionID uuid.UUID) (*BookSessionResponse, error)
	CancelBooking(ctx context.Context, userID, bookingID uuid.UUID) error
	IssueToken(ctx context.Context, userID, bookingID uuid.UUID) (*checkin.Payload, string, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	GetBookingsBySession(ctx context.Context, sessionID uuid.UUID) ([]BookingWithDetails, error)
	GetBookingsByGym(ctx context.Context, gymID uuid.UUID) ([]BookingWithDetails, error)
	GetBookingStatsByDay(ctx context.Context, from, to time.Time) ([]BookingStatsByBucket, error)
	GetBookingStatsByGym(ctx context.Context, from, to time.Time) ([]BookingStatsByGym, error)
}

type service struct {
	bookingRepo  Repository
	gymRepo      gym.Repository
	walletRepo   wallet.Repository
	userRepo     user.Repository
	emailService *email.Service
	codec        *checkin.Codec
	clock        clock.Clock
}

func NewService(
	bookingRepo Repository,
	gymRepo gym.Repository,
	walletRepo wallet.Repository,
	userRepo user.Repository,
	emailService *email.Service,
	codec *checkin.Codec,
	clk clock.Clock,
) Service {
	return &service{
		bookingRepo:  bookingRepo,
		gymRepo:      gymRepo,
		walletRepo:   walletRepo,
		userRepo:     userRepo,
		emailService: emailService,
		codec:        codec,
		clock:        clk,
	}
}

func (s *service) BookSession(ctx context.Context, userID, sessionID uuid.UUID) (*BookSessionResponse, error) {
	session, err := s.gymRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if session.StartTime.Before(s.clock.Now()) {
		return nil, ErrSessionInPast
	}

	bookedCount, err := s.bookingRepo.CountActiveBookingsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if bookedCount >= session.Capacity {
		return nil, ErrSessionFull
	}

	hasBooking, err := s.bookingRepo.UserHasBookingForSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if hasBooking {
		return nil, ErrAlreadyBooked
	}

	// Charge the wallet before creating the booking so a broke account
	// never holds a seat.
	paidWith := "free"
	if session.PriceCents > 0 {
		err = s.walletRepo.AddTransaction(ctx, userID, -session.PriceCents, "booking_payment")
		if err != nil {
			if errors.Is(err, wallet.ErrInsufficientBalance) {
				return nil, ErrInsufficientFunds
			}
			return nil, err
		}
		paidWith = "wallet"
	}

	booking, err := s.bookingRepo.CreateBooking(ctx, userID, sessionID, session.PriceCents, session.Currency)
	if err != nil {
		if session.PriceCents > 0 {
			// The charge landed but the booking did not; give the money back.
			if refundErr := s.walletRepo.AddTransaction(ctx, userID, session.PriceCents, "booking_refund"); refundErr != nil {
				logger.Error("refund after failed booking creation",
					"user_id", userID, "session_id", sessionID, "error", refundErr)
			}
		}
		return nil, err
	}

	metrics.RecordBooking("created")

	if u, _ := s.userRepo.FindByID(ctx, userID); u != nil {
		gymName := ""
		if g, _ := s.gymRepo.GetGymByID(ctx, session.GymID); g != nil {
			gymName = g.Name
		}
		s.emailService.SendBookingConfirmation(
			ctx,
			u.Email,
			u.Name,
			session.Title,
			gymName,
			booking.CheckinCode,
			session.StartTime,
		)
	}

	return &BookSessionResponse{
		Booking:     booking,
		PaidWith:    paidWith,
		AmountCents: session.PriceCents,
	}, nil
}

func (s *service) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID) error {
	booking, err := s.bookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return ErrBookingNotFound
	}

	if booking.UserID != userID {
		return ErrNotYourBooking
	}

	err = s.bookingRepo.CancelBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFoundOrAlreadyCancelled) {
			return ErrBookingNotFound
		}
		return err
	}

	if booking.PriceCents > 0 {
		// The cancel has already landed; a failed refund must surface.
		if err := s.walletRepo.AddTransaction(ctx, userID, booking.PriceCents, "booking_refund"); err != nil {
			return fmt.Errorf("refund booking %s: %w", bookingID, err)
		}
	}

	metrics.RecordBookingCancellation()

	if u, _ := s.userRepo.FindByID(ctx, userID); u != nil {
		sessionTitle := ""
		gymName := ""
		if session, _ := s.gymRepo.GetSessionByID(ctx, booking.SessionID); session != nil {
			sessionTitle = session.Title
			if g, _ := s.gymRepo.GetGymByID(ctx, session.GymID); g != nil {
				gymName = g.Name
			}
		}
		s.emailService.SendCancellation(ctx, u.Email, u.Name, sessionTitle, gymName)
	}

	return nil
}

// IssueToken mints the scannable check-in pass for one of the caller's
// bookings. Cancelled and completed bookings get nothing; a checked-in
// booking still does, so a member can re-open the QR screen at the door.
func (s *service) IssueToken(ctx context.Context, userID, bookingID uuid.UUID) (*checkin.Payload, string, error) {
	booking, err := s.bookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, "", ErrBookingNotFound
	}

	if booking.UserID != userID {
		return nil, "", ErrNotYourBooking
	}

	if booking.Status != StatusActive && booking.Status != StatusCheckedIn {
		return nil, "", ErrTokenNotIssuable
	}

	session, err := s.gymRepo.GetSessionByID(ctx, booking.SessionID)
	if err != nil {
		return nil, "", fmt.Errorf("load session for booking %s: %w", bookingID, err)
	}

	payload, token, err := s.codec.Encode(checkin.Booking{
		ID:           booking.ID.String(),
		GymID:        session.GymID.String(),
		UserID:       booking.UserID.String(),
		CheckinCode:  booking.CheckinCode,
		SessionStart: session.StartTime,
		SessionEnd:   session.EndTime,
		AmountCents:  booking.PriceCents,
		Currency:     booking.Currency,
	})
	if err != nil {
		return nil, "", fmt.Errorf("encode check-in token: %w", err)
	}

	metrics.RecordTokenIssued()
	return payload, token, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return s.bookingRepo.GetUserBookings(ctx, userID)
}

func (s *service) GetBookingsBySession(ctx context.Context, sessionID uuid.UUID) ([]BookingWithDetails, error) {
	return s.bookingRepo.GetBookingsBySession(ctx, sessionID)
}

func (s *service) GetBookingsByGym(ctx context.Context, gymID uuid.UUID) ([]BookingWithDetails, error) {
	return s.bookingRepo.GetBookingsByGym(ctx, gymID)
}

func (s *service) GetBookingStatsByDay(ctx context.Context, from, to time.Time) ([]BookingStatsByBucket, error) {
	return s.bookingRepo.GetBookingStatsByDay(ctx, from, to)
}

func (s *service) GetBookingStatsByGym(ctx context.Context, from, to time.Time) ([]BookingStatsByGym, error) {
	return s.bookingRepo.GetBookingStatsByGym(ctx, from, to)
}
