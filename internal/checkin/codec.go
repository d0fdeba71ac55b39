package checkin

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gymflex/internal/clock"
)

var (
	ErrIncompleteBooking = errors.New("booking is missing required fields")
	ErrInvalidWindow     = errors.New("session window must be a positive whole number of minutes")
)

// b64 is unpadded URL-safe base64 in strict mode. Strict decoding rejects
// non-zero trailing padding bits, so no two distinct encodings decode to
// the same bytes; without it a flipped final character could slip past
// checksum verification.
var b64 = base64.RawURLEncoding.Strict()

// Codec turns bookings into scannable check-in tokens and tokens back
// into payloads. It is stateless apart from the injected clock and safe
// for concurrent use.
//
// The checksum it embeds is corruption detection for the offline scan
// path, not a cryptographic signature: anyone who knows the wire format
// can recompute it. Admission security comes from the booking lookup on
// the scanning side, not from the token.
type Codec struct {
	clock clock.Clock
}

func NewCodec(c clock.Clock) *Codec {
	return &Codec{clock: c}
}

// Encode builds the payload for a booking, stamps it with the current
// time and checksum, and serializes the token string. Encoding is
// deterministic: the same booking at the same instant yields the same
// bytes.
func (c *Codec) Encode(b Booking) (*Payload, string, error) {
	if b.ID == "" || b.GymID == "" || b.UserID == "" || b.CheckinCode == "" {
		return nil, "", ErrIncompleteBooking
	}
	window := b.SessionEnd.Sub(b.SessionStart)
	if window <= 0 || window%time.Minute != 0 {
		return nil, "", ErrInvalidWindow
	}

	p := &Payload{
		Version:      Version,
		BookingID:    b.ID,
		GymID:        b.GymID,
		UserID:       b.UserID,
		CheckinCode:  b.CheckinCode,
		SessionStart: b.SessionStart.Truncate(time.Second).UTC(),
		SessionEnd:   b.SessionEnd.Truncate(time.Second).UTC(),
		AmountCents:  b.AmountCents,
		Currency:     b.Currency,
		IssuedAt:     c.clock.Now().Truncate(time.Second).UTC(),
	}
	p.Checksum = checksum(p)

	data, err := json.Marshal(p.wire())
	if err != nil {
		return nil, "", fmt.Errorf("encode payload: %w", err)
	}
	token := fmt.Sprintf("%s://%s?payload=%s", Scheme, EnvelopeHost, b64.EncodeToString(data))
	return p, token, nil
}

// Decode parses a scanned string into a payload. It accepts the full
// gymflex://checkin?payload=... envelope and, for the shorter scanner
// path, a bare JSON object with the same fields. Malformed input of any
// kind reports ok=false; scanners read arbitrary codes all day and a
// foreign QR must never panic or error. Checksum verification is a
// separate step.
func (c *Codec) Decode(raw string) (*Payload, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	var data []byte
	if strings.HasPrefix(raw, "{") {
		data = []byte(raw)
	} else {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != Scheme || u.Host != EnvelopeHost {
			return nil, false
		}
		encoded := u.Query().Get("payload")
		if encoded == "" {
			return nil, false
		}
		data, err = b64.DecodeString(encoded)
		if err != nil {
			return nil, false
		}
	}

	var w wirePayload
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false
	}
	if !w.structurallyValid() {
		return nil, false
	}
	return fromWire(w), true
}

// VerifyChecksum recomputes the checksum from the payload fields and
// compares it with the carried value.
func (c *Codec) VerifyChecksum(p *Payload) bool {
	if p == nil || p.Checksum == "" {
		return false
	}
	return checksum(p) == p.Checksum
}

// checksum hashes the canonical wire JSON with the checksum field
// absent. sha256/hex keeps it stable across platforms; see the Codec doc
// for what this does and does not protect against.
func checksum(p *Payload) string {
	w := p.wire()
	w.Checksum = ""
	data, _ := json.Marshal(w)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
