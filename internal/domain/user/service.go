package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"smartcity/internal/apperr"
	"smartcity/internal/pkg/jwt"
	"smartcity/internal/pkg/validator"
)

// StatsReader supplies marketplace statistics for public profiles.
type StatsReader interface {
	ProviderStats(ctx context.Context, providerID uuid.UUID) (ProviderStats, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     Role   `json:"role" validate:"omitempty,oneof=learner mentor"`
}

type UpdateProfileInput struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=255"`
	Bio   *string `json:"bio" validate:"omitempty,max=2000"`
	Image *string `json:"image" validate:"omitempty,max=512"`
}

type Service struct {
	repo  Repository
	jwt   *jwt.Service
	stats StatsReader
}

func NewService(repo Repository, jwtService *jwt.Service, stats StatsReader) *Service {
	return &Service{repo: repo, jwt: jwtService, stats: stats}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validator.Check(in); err != nil {
		return nil, "", err
	}
	if in.Role == "" {
		in.Role = RoleLearner
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, "", apperr.Internal(err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, "", err
		}
		return nil, "", apperr.Internal(err)
	}

	token, err := s.jwt.GenerateToken(u.ID.String(), string(u.Role))
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apperr.Validation("Email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	if !PasswordMatches(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(u.ID.String(), string(u.Role))
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return u, token, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*User, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Image != nil {
		u.Image = *in.Image
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) PublicProfile(ctx context.Context, id uuid.UUID) (*PublicProfile, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		Bio:       u.Bio,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
	}
	if s.stats != nil {
		stats, err := s.stats.ProviderStats(ctx, u.ID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		profile.Stats = stats
	}
	return profile, nil
}
