package checkin

import (
	"context"
	"fmt"
	"time"

	"gymflex/internal/clock"
	"gymflex/internal/logger"
	"gymflex/internal/metrics"
)

// Status is the outcome of validating a scanned token. The set is closed;
// scanners and golden tests depend on the exact strings.
type Status string

const (
	StatusValid            Status = "valid"
	StatusExpired          Status = "expired"
	StatusInvalid          Status = "invalid"
	StatusWrongGym         Status = "wrong_gym"
	StatusNotStarted       Status = "not_started"
	StatusAlreadyCheckedIn Status = "already_checked_in"
	StatusCancelled        Status = "cancelled"
)

// BookingStatus is the lifecycle state a BookingSource reports.
type BookingStatus string

const (
	// BookingUnknown means the source has no record of the booking.
	BookingUnknown   BookingStatus = ""
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
	BookingCheckedIn BookingStatus = "checked_in"
	BookingCompleted BookingStatus = "completed"
	BookingExpired   BookingStatus = "expired"
)

// BookingSource reports the current status of a booking. Implementations
// return BookingUnknown with a nil error when the booking does not exist;
// errors are reserved for lookup failures (database down, timeout), which
// the validator surfaces instead of folding into a scan outcome.
type BookingSource interface {
	BookingStatus(ctx context.Context, bookingID string) (BookingStatus, error)
}

const startTimeFormat = "Jan 2, 2006 at 3:04 PM"

// Result is the decision record for one scan. Identity and session fields
// echo the payload for every status except StatusInvalid, where nothing
// decoded can be trusted. RemainingMinutes is populated only for
// StatusValid and StatusAlreadyCheckedIn. Which fields each status
// carries is part of the contract; the factories below are the only
// constructors.
type Result struct {
	Status           Status     `json:"status"`
	BookingID        string     `json:"booking_id,omitempty"`
	GymID            string     `json:"gym_id,omitempty"`
	UserID           string     `json:"user_id,omitempty"`
	CheckinCode      string     `json:"checkin_code,omitempty"`
	SessionStart     *time.Time `json:"session_start,omitempty"`
	SessionEnd       *time.Time `json:"session_end,omitempty"`
	RemainingMinutes int        `json:"remaining_minutes"`
	Message          string     `json:"message"`
}

// Allowed reports whether the member may enter. Only a fresh valid scan
// and a repeat scan of an admitted booking open the door.
func (r *Result) Allowed() bool {
	return r.Status == StatusValid || r.Status == StatusAlreadyCheckedIn
}

func invalidResult() *Result {
	return &Result{
		Status:  StatusInvalid,
		Message: "Invalid check-in code",
	}
}

func echoResult(status Status, p *Payload) *Result {
	start := p.SessionStart
	end := p.SessionEnd
	return &Result{
		Status:       status,
		BookingID:    p.BookingID,
		GymID:        p.GymID,
		UserID:       p.UserID,
		CheckinCode:  p.CheckinCode,
		SessionStart: &start,
		SessionEnd:   &end,
	}
}

func wrongGymResult(p *Payload) *Result {
	r := echoResult(StatusWrongGym, p)
	r.Message = fmt.Sprintf("This pass belongs to a different gym (%s)", p.GymID)
	return r
}

func cancelledResult(p *Payload) *Result {
	r := echoResult(StatusCancelled, p)
	r.Message = "This booking was cancelled"
	return r
}

func alreadyCheckedInResult(p *Payload, remaining int) *Result {
	r := echoResult(StatusAlreadyCheckedIn, p)
	r.RemainingMinutes = remaining
	r.Message = fmt.Sprintf("Already checked in. %d minutes remaining", remaining)
	return r
}

func notStartedResult(p *Payload) *Result {
	r := echoResult(StatusNotStarted, p)
	r.Message = fmt.Sprintf("Session has not started yet. Starts %s", p.SessionStart.Format(startTimeFormat))
	return r
}

func expiredResult(p *Payload) *Result {
	r := echoResult(StatusExpired, p)
	r.Message = "This session has ended"
	return r
}

func validResult(p *Payload, remaining int) *Result {
	r := echoResult(StatusValid, p)
	r.RemainingMinutes = remaining
	r.Message = fmt.Sprintf("Check-in approved. %d minutes remaining", remaining)
	return r
}

// Validator applies the admission rules to scanned tokens. It never
// mutates booking state; recording the check-in is the caller's job once
// it sees an allowed result.
type Validator struct {
	codec *Codec
	clock clock.Clock
}

func NewValidator(codec *Codec, c clock.Clock) *Validator {
	return &Validator{codec: codec, clock: c}
}

// Validate decodes a raw scanned string and applies the rules in fixed
// order: decode, checksum, gym identity, booking status, session timing.
// The first matching rule decides; gym identity is checked before timing
// so a pass for another gym always reads wrong_gym, even when expired.
//
// src may be nil: timing checks alone then decide, which is how a scanner
// without connectivity keeps working. Lookup failures are returned as
// errors, never shown as an invalid scan.
func (v *Validator) Validate(ctx context.Context, raw, gymID string, src BookingSource) (*Result, error) {
	p, ok := v.codec.Decode(raw)
	if !ok {
		logger.Debug("check-in scan failed to decode")
		return invalidResult(), nil
	}
	return v.ValidatePayload(ctx, p, gymID, src)
}

// ValidatePayload runs the same decision procedure from the checksum step
// on, for callers that already hold a decoded payload.
func (v *Validator) ValidatePayload(ctx context.Context, p *Payload, gymID string, src BookingSource) (*Result, error) {
	if p == nil {
		return invalidResult(), nil
	}
	if !v.codec.VerifyChecksum(p) {
		// Distinct from a decode failure: the token was shaped right but
		// its content does not match its checksum.
		logger.Warn("check-in scan failed checksum verification",
			"booking_id", p.BookingID, "gym_id", p.GymID)
		metrics.RecordChecksumFailure()
		return invalidResult(), nil
	}

	if p.GymID != gymID {
		return wrongGymResult(p), nil
	}

	if src != nil {
		status, err := src.BookingStatus(ctx, p.BookingID)
		if err != nil {
			return nil, fmt.Errorf("booking status lookup: %w", err)
		}
		switch status {
		case BookingCancelled:
			return cancelledResult(p), nil
		case BookingCheckedIn:
			return alreadyCheckedInResult(p, p.RemainingMinutes(v.clock.Now())), nil
		}
		// Unknown or any other status falls through to the timing checks;
		// a scanner must keep admitting when its booking store lags.
	}

	now := v.clock.Now()
	if p.NotStarted(now) {
		return notStartedResult(p), nil
	}
	if p.Expired(now) {
		return expiredResult(p), nil
	}
	return validResult(p, p.RemainingMinutes(now)), nil
}
