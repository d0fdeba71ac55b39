package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gymflex/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, req UpdateMeRequest) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func (s *service) issueTokens(u *User) (string, string, error) {
	return auth.GenerateTokens(u.ID.String(), u.Email, u.Role, s.jwtSecret, s.jwtSecret)
}

// Register creates a member account and logs it in immediately.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	u, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, auth.RoleMember)
	if err != nil {
		return nil, "", "", err
	}

	access, refresh, err := s.issueTokens(u)
	if err != nil {
		return nil, "", "", err
	}

	return u, access, refresh, nil
}

// Login checks credentials. Unknown email and wrong password produce the
// same error.
func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := s.issueTokens(u)
	if err != nil {
		return nil, "", "", err
	}

	return u, access, refresh, nil
}

func (s *service) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, req UpdateMeRequest) (*User, error) {
	u, err := s.repo.UpdateName(ctx, userID, req.Name)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// RefreshToken re-reads the user so a role change or deletion since login
// is reflected in the new access token.
func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	access, err := auth.GenerateAccessToken(u.ID.String(), u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return access, u, nil
}
