package group

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrAlreadyMember = errors.New("already a member of this group")
	ErrNotMember     = errors.New("not a member of this group")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreateGroup inserts the group and its first membership in one
// transaction, so a group can never exist without its owner.
func (r *repository) CreateGroup(ctx context.Context, name, description string, createdBy uuid.UUID) (*Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	g := &Group{}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (name, description, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, description, created_by, created_at`,
		name, description, createdBy,
	).StructScan(g)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, 'owner')`,
		g.ID, createdBy,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return g, nil
}

func (r *repository) GetAllGroups(ctx context.Context) ([]GroupWithStats, error) {
	query := `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at,
		       COUNT(m.user_id) AS member_count
		FROM groups g
		LEFT JOIN group_members m ON m.group_id = g.id
		GROUP BY g.id, g.name, g.description, g.created_by, g.created_at
		ORDER BY g.created_at DESC
	`

	var groups []GroupWithStats
	err := r.db.SelectContext(ctx, &groups, query)
	if err != nil {
		return nil, err
	}

	if groups == nil {
		groups = []GroupWithStats{}
	}

	return groups, nil
}

func (r *repository) GetGroupByID(ctx context.Context, id uuid.UUID) (*GroupWithStats, error) {
	query := `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at,
		       COUNT(m.user_id) AS member_count
		FROM groups g
		LEFT JOIN group_members m ON m.group_id = g.id
		WHERE g.id = $1
		GROUP BY g.id, g.name, g.description, g.created_by, g.created_at
	`

	var g GroupWithStats
	err := r.db.GetContext(ctx, &g, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}

	return &g, nil
}

func (r *repository) AddMember(ctx context.Context, groupID, userID uuid.UUID, role string) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (group_id, user_id) DO NOTHING`,
		groupID, userID, role,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyMember
	}

	return nil
}

func (r *repository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotMember
	}

	return nil
}

// GetMemberRole returns the caller's role in the group, or an empty
// string when they are not a member.
func (r *repository) GetMemberRole(ctx context.Context, groupID, userID uuid.UUID) (string, error) {
	var role string
	err := r.db.GetContext(ctx, &role,
		`SELECT role FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return role, nil
}

func (r *repository) GetMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error) {
	query := `
		SELECT m.group_id, m.user_id, m.role, m.joined_at, u.name AS user_name
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at ASC
	`

	var members []Member
	err := r.db.SelectContext(ctx, &members, query, groupID)
	if err != nil {
		return nil, err
	}

	if members == nil {
		members = []Member{}
	}

	return members, nil
}

func (r *repository) CreateMessage(ctx context.Context, groupID, userID uuid.UUID, body string) (*Message, error) {
	msg := &Message{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO group_messages (group_id, user_id, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, group_id, user_id, body, created_at`,
		groupID, userID, body,
	).StructScan(msg)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (r *repository) GetMessages(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]MessageWithAuthor, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT gm.id, gm.group_id, gm.user_id, gm.body, gm.created_at, u.name AS user_name
		FROM group_messages gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.created_at DESC
		LIMIT $2 OFFSET $3
	`

	var messages []MessageWithAuthor
	err := r.db.SelectContext(ctx, &messages, query, groupID, limit, offset)
	if err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []MessageWithAuthor{}
	}

	return messages, nil
}
