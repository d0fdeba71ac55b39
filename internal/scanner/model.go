package scanner

import (
	"time"

	"github.com/google/uuid"

	"gymflex/internal/checkin"
)

// Scan is the audit record of one QR validation at a gym door. Booking
// and user ids are nullable: an unreadable or foreign code decodes to
// nothing attributable.
type Scan struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	GymID     uuid.UUID  `db:"gym_id" json:"gym_id"`
	BookingID *uuid.UUID `db:"booking_id" json:"booking_id,omitempty"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Status    string     `db:"status" json:"status"`
	Allowed   bool       `db:"allowed" json:"allowed"`
	ScannedAt time.Time  `db:"scanned_at" json:"scanned_at"`
}

type ScanRequest struct {
	GymID string `json:"gym_id" binding:"required"`
	Token string `json:"token" binding:"required"`
}

// ScanResponse is what the door device renders: the validation result
// plus the single flag the turnstile acts on.
type ScanResponse struct {
	*checkin.Result
	Allowed bool `json:"allowed"`
}

type ScanStats struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}
