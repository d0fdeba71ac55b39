// Package checkin implements the QR check-in token format and the
// validation rules a gym-side scanner applies to it. Tokens are minted
// when a member books a session and are designed to be checked fully
// offline: everything the scanner needs (identity, session window,
// integrity checksum) travels inside the token itself.
package checkin

import "time"

// Token envelope constants. A full token looks like
// gymflex://checkin?payload=<base64>.
const (
	Scheme       = "gymflex"
	EnvelopeHost = "checkin"
	Version      = "1"
)

// Booking is the snapshot a token is minted from. The booking service
// fills it from the stored booking and its session.
type Booking struct {
	ID           string
	GymID        string
	UserID       string
	CheckinCode  string
	SessionStart time.Time
	SessionEnd   time.Time
	AmountCents  int64
	Currency     string
}

// Payload is the decoded content of a check-in token. All times are UTC
// with second precision; the wire carries Unix seconds. IssuedAt is kept
// for audit only and plays no part in validation.
type Payload struct {
	Version      string
	BookingID    string
	GymID        string
	UserID       string
	CheckinCode  string
	SessionStart time.Time
	SessionEnd   time.Time
	AmountCents  int64
	Currency     string
	IssuedAt     time.Time
	Checksum     string
}

// Expired reports whether the session window has closed. The boundary is
// strict: a scan at exactly SessionEnd still passes.
func (p *Payload) Expired(now time.Time) bool {
	return now.After(p.SessionEnd)
}

// NotStarted reports whether the session window has not opened yet.
// Strict boundary: a scan at exactly SessionStart passes.
func (p *Payload) NotStarted(now time.Time) bool {
	return now.Before(p.SessionStart)
}

// RemainingMinutes is the whole minutes left in the session window,
// rounded down and never negative.
func (p *Payload) RemainingMinutes(now time.Time) int {
	if now.After(p.SessionEnd) {
		return 0
	}
	return int(p.SessionEnd.Sub(now) / time.Minute)
}

// wirePayload is the JSON object inside the base64 envelope. Fields are
// declared in sorted key order; encoding/json emits struct fields in
// declaration order, which keeps the serialized bytes stable so the
// checksum is reproducible on any implementation that sorts its keys.
// The checksum is omitted while the checksum itself is computed.
type wirePayload struct {
	AmountCents int64  `json:"amount_cents"`
	BookingID   string `json:"booking_id"`
	CheckinCode string `json:"checkin_code"`
	Checksum    string `json:"checksum,omitempty"`
	Currency    string `json:"currency"`
	DurationMin int64  `json:"duration_min"`
	GymID       string `json:"gym_id"`
	IssuedAt    int64  `json:"issued_at"`
	StartAt     int64  `json:"start_at"`
	UserID      string `json:"user_id"`
	Version     string `json:"version"`
}

func (w wirePayload) structurallyValid() bool {
	return w.Version == Version &&
		w.BookingID != "" &&
		w.GymID != "" &&
		w.UserID != "" &&
		w.CheckinCode != "" &&
		w.Checksum != "" &&
		w.StartAt > 0 &&
		w.DurationMin > 0
}

func (p *Payload) wire() wirePayload {
	return wirePayload{
		AmountCents: p.AmountCents,
		BookingID:   p.BookingID,
		CheckinCode: p.CheckinCode,
		Checksum:    p.Checksum,
		Currency:    p.Currency,
		DurationMin: int64(p.SessionEnd.Sub(p.SessionStart) / time.Minute),
		GymID:       p.GymID,
		IssuedAt:    p.IssuedAt.Unix(),
		StartAt:     p.SessionStart.Unix(),
		UserID:      p.UserID,
		Version:     p.Version,
	}
}

func fromWire(w wirePayload) *Payload {
	start := time.Unix(w.StartAt, 0).UTC()
	return &Payload{
		Version:      w.Version,
		BookingID:    w.BookingID,
		GymID:        w.GymID,
		UserID:       w.UserID,
		CheckinCode:  w.CheckinCode,
		SessionStart: start,
		SessionEnd:   start.Add(time.Duration(w.DurationMin) * time.Minute),
		AmountCents:  w.AmountCents,
		Currency:     w.Currency,
		IssuedAt:     time.Unix(w.IssuedAt, 0).UTC(),
		Checksum:     w.Checksum,
	}
}
