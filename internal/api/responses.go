// Package api holds the response envelopes shared across handlers, kept
// in one place so the swagger annotations reference a single set of types.
package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status     string `json:"status" example:"ok"`
	EmailQueue int64  `json:"email_queue" example:"0"`
}

// TokenResponse carries an issued check-in token, ready to render as a QR
// code on the member's device.
type TokenResponse struct {
	Token       string `json:"token" example:"gymflex://checkin?payload=eyJhbW91bnRfY2VudHMiOjE1MDAsLi4u"`
	CheckinCode string `json:"checkin_code" example:"GF-4F7A2C19"`
	ExpiresAt   string `json:"expires_at" example:"2025-03-10T19:00:00Z"`
}
