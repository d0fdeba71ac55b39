package group

import (
	"time"

	"github.com/google/uuid"
)

// Membership roles. The creator joins as owner; everyone else as member.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type Group struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedBy   uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type GroupWithStats struct {
	Group
	MemberCount int `db:"member_count" json:"member_count"`
}

type Member struct {
	GroupID  uuid.UUID `db:"group_id" json:"group_id"`
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	Role     string    `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
	UserName string    `db:"user_name" json:"user_name"`
}

type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	GroupID   uuid.UUID `db:"group_id" json:"group_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type MessageWithAuthor struct {
	Message
	UserName string `db:"user_name" json:"user_name"`
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type PostMessageRequest struct {
	Body string `json:"body" binding:"required"`
}
