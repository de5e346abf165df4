package marketplace

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"smartcity/internal/apperr"
	"smartcity/internal/database"
	"smartcity/internal/domain/user"
	"smartcity/internal/events"
)

// Directory resolves users for display names in notifications.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Service struct {
	store  Store
	uow    database.UnitOfWork[Store]
	users  Directory
	events events.Dispatcher
	now    func() time.Time
}

func NewService(db *gorm.DB, users Directory, dispatcher events.Dispatcher) *Service {
	return NewServiceWith(NewRepository(db), database.NewUnitOfWork(db, NewRepository), users, dispatcher)
}

// NewServiceWith wires explicit store and unit-of-work implementations.
func NewServiceWith(store Store, uow database.UnitOfWork[Store], users Directory, dispatcher events.Dispatcher) *Service {
	return &Service{
		store:  store,
		uow:    uow,
		users:  users,
		events: dispatcher,
		now:    time.Now,
	}
}

// Store exposes the read side, e.g. provider stats for user profiles.
func (s *Service) Store() Store {
	return s.store
}

func (s *Service) emit(ctx context.Context, evts []events.Event) error {
	return events.Emit(ctx, s.events, evts)
}

func (s *Service) displayName(ctx context.Context, id uuid.UUID) string {
	if s.users == nil {
		return "Someone"
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil || u == nil {
		log.Printf("marketplace: display name lookup failed user_id=%s err=%v", id, err)
		return "Someone"
	}
	return u.Name
}

func (s *Service) attachStats(ctx context.Context, providerIDs []uuid.UUID, apply func(map[uuid.UUID]user.ProviderStats)) error {
	stats, err := s.store.ProviderStatsFor(ctx, providerIDs)
	if err != nil {
		return apperr.Internal(err)
	}
	apply(stats)
	return nil
}

// internal wraps store failures that are not already classified.
func internal(err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return apperr.Internal(err)
}

// trimmed returns a trimmed copy of an optional field.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func normalizedCategory(s *string) *string {
	if s == nil {
		return nil
	}
	v := NormalizeCategory(*s)
	return &v
}

// NormalizeCategory collapses whitespace and title-cases a category so
// "home  repairs" and "Home Repairs" land in the same bucket.
func NormalizeCategory(category string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(category), " "))
}

func ptrStats(stats map[uuid.UUID]user.ProviderStats, id uuid.UUID) *user.ProviderStats {
	st := stats[id]
	return &st
}
