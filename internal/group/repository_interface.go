package group

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateGroup(ctx context.Context, name, description string, createdBy uuid.UUID) (*Group, error)
	GetAllGroups(ctx context.Context) ([]GroupWithStats, error)
	GetGroupByID(ctx context.Context, id uuid.UUID) (*GroupWithStats, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID, role string) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	GetMemberRole(ctx context.Context, groupID, userID uuid.UUID) (string, error)
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error)
	CreateMessage(ctx context.Context, groupID, userID uuid.UUID, body string) (*Message, error)
	GetMessages(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]MessageWithAuthor, error)
}
