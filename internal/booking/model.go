package booking

import (
	"time"

	"github.com/google/uuid"
)

// Booking lifecycle statuses. The strings double as the vocabulary the
// scanner's booking lookup speaks, so they must not drift.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusCheckedIn = "checked_in"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
)

type Booking struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	SessionID   uuid.UUID  `db:"session_id" json:"session_id"`
	Status      string     `db:"status" json:"status"`
	CheckinCode string     `db:"checkin_code" json:"checkin_code"`
	PriceCents  int64      `db:"price_cents" json:"price_cents"`
	Currency    string     `db:"currency" json:"currency"`
	CheckedInAt *time.Time `db:"checked_in_at" json:"checked_in_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type BookingWithDetails struct {
	Booking
	SessionTitle string    `db:"session_title" json:"session_title"`
	SessionStart time.Time `db:"session_start" json:"session_start"`
	SessionEnd   time.Time `db:"session_end" json:"session_end"`
	GymName      string    `db:"gym_name" json:"gym_name"`
	GymLocation  string    `db:"gym_location" json:"gym_location"`
	UserName     string    `db:"user_name" json:"user_name"`
	UserEmail    string    `db:"user_email" json:"user_email"`
}

type BookSessionResponse struct {
	Booking     *Booking `json:"booking"`
	PaidWith    string   `json:"paid_with" example:"wallet"`
	AmountCents int64    `json:"amount_cents" example:"1500"`
}

type CancelBookingResponse struct {
	Message string `json:"message" example:"Booking cancelled successfully"`
}

// BookingStatsByBucket is one row of the per-day analytics aggregation.
type BookingStatsByBucket struct {
	Bucket            string `db:"bucket" json:"bucket"`
	BookingsCreated   int    `db:"bookings_created" json:"bookings_created"`
	BookingsCancelled int    `db:"bookings_cancelled" json:"bookings_cancelled"`
	CheckIns          int    `db:"check_ins" json:"check_ins"`
}

type BookingStatsByGym struct {
	GymID             uuid.UUID `db:"gym_id" json:"gym_id"`
	GymName           string    `db:"gym_name" json:"gym_name"`
	BookingsCreated   int       `db:"bookings_created" json:"bookings_created"`
	BookingsCancelled int       `db:"bookings_cancelled" json:"bookings_cancelled"`
	CheckIns          int       `db:"check_ins" json:"check_ins"`
}
