package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
)

type EventSource interface {
	GetEvent(ctx context.Context, id uuid.UUID) (catalog.Event, error)
}

// Service creates machines from catalog events and tracks them in the store.
type Service struct {
	events EventSource
	store  *Store
	deps   Deps
	cfg    Config
}

func NewService(events EventSource, store *Store, deps Deps, cfg Config) *Service {
	return &Service{
		events: events,
		store:  store,
		deps:   withDefaults(deps),
		cfg:    cfg,
	}
}

func (s *Service) Start(ctx context.Context, eventID uuid.UUID, userID string) (*Machine, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewMissingUserError()
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		var catalogErr *catalog.Error
		if errors.As(err, &catalogErr) && catalogErr.Reason == catalog.REASON_EVENT_DOES_NOT_EXIST {
			return nil, NewEventNotAvailableError("event does not exist", err)
		}
		return nil, NewFailedToLoadCheckoutError("failed to load event", err)
	}
	if len(event.AvailableZoneIDs()) == 0 {
		return nil, NewEventNotAvailableError("event has no zones on sale", nil)
	}

	m := Start(event, userID, s.deps, s.cfg)
	s.store.Put(m)

	s.deps.Logger.Info("checkout started",
		slog.String("sessionId", m.ID().String()),
		slog.String("eventId", eventID.String()),
	)
	return m, nil
}

func (s *Service) Get(id uuid.UUID) (*Machine, error) {
	return s.store.Get(id)
}

func (s *Service) Discard(id uuid.UUID) bool {
	return s.store.Discard(id)
}

// Pay settles the session and drops it from the store once it is confirmed. The
// outcome is returned to the caller either way.
func (s *Service) Pay(ctx context.Context, id uuid.UUID) (Outcome, error) {
	m, err := s.store.Get(id)
	if err != nil {
		return Outcome{}, err
	}

	outcome, err := m.Pay(ctx)
	if m.Step() == session.CONFIRMATION {
		s.store.Discard(id)
	}
	return outcome, err
}

func (s *Service) PaymentMethods() []payment.Method {
	return s.deps.Payments.Available()
}
