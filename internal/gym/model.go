package gym

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is the only currency sessions are priced in.
const DefaultCurrency = "EUR"

type Gym struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Session is a bookable class or open slot at a gym.
type Session struct {
	ID         uuid.UUID `db:"id" json:"id"`
	GymID      uuid.UUID `db:"gym_id" json:"gym_id"`
	Title      string    `db:"title" json:"title"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	Capacity   int       `db:"capacity" json:"capacity"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	Currency   string    `db:"currency" json:"currency"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type SessionWithAvailability struct {
	Session
	BookedCount int  `db:"booked_count" json:"booked_count"`
	Available   int  `db:"-" json:"available"`
	IsFull      bool `db:"-" json:"is_full"`
}

type CreateGymRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
}

type CreateSessionRequest struct {
	Title      string `json:"title" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
	Capacity   int    `json:"capacity" binding:"required,min=1"`
	PriceCents int64  `json:"price_cents" binding:"min=0"`
}
