package notification

import (
	"context"

	"github.com/google/uuid"

	"smartcity/internal/apperr"
	"smartcity/internal/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of the user's notifications and their unread total.
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) ([]Notification, int64, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, 0, ErrAuthRequired
	}
	items, total, err := s.repo.List(ctx, userID, unreadOnly, p)
	if err != nil {
		return nil, 0, 0, apperr.Internal(err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, apperr.Internal(err)
	}
	return items, total, unread, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, ErrAuthRequired
	}
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

// SetRead flips the read flag on one of the user's notifications.
func (s *Service) SetRead(ctx context.Context, userID, id uuid.UUID, read bool) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, ErrAuthRequired
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	if n.UserID != userID {
		return nil, ErrNotOwner
	}
	if err := s.repo.SetRead(ctx, id, read); err != nil {
		return nil, apperr.Internal(err)
	}
	n.IsRead = read
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, ErrAuthRequired
	}
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}
