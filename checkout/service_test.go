package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
)

func newTestService(t *testing.T, events EventSource) (*Service, *fixture) {
	t.Helper()
	f := newFixture(t)
	deps := f.machine.deps
	return NewService(events, NewStore(nil), deps, f.machine.cfg), f
}

func TestServiceStart(t *testing.T) {
	t.Run("opens a session at selection", func(t *testing.T) {
		event := testEvent()
		svc, _ := newTestService(t, &mockEventSource{GetEventFunc: func(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
			assert.Equal(t, event.ID, id)
			return event, nil
		}})

		m, err := svc.Start(context.Background(), event.ID, "user-1")

		require.NoError(t, err)
		assert.Equal(t, session.SELECTION, m.Step())
		got, err := svc.Get(m.ID())
		require.NoError(t, err)
		assert.Same(t, m, got)
	})

	t.Run("requires a user", func(t *testing.T) {
		var lookups int
		svc, _ := newTestService(t, &mockEventSource{GetEventFunc: func(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
			lookups++
			return testEvent(), nil
		}})

		_, err := svc.Start(context.Background(), testEvent().ID, " ")

		var checkoutErr *Error
		require.ErrorAs(t, err, &checkoutErr)
		assert.Equal(t, REASON_VALIDATION_FAILED, checkoutErr.Reason)
		assert.Equal(t, []string{"userId"}, checkoutErr.Fields().Fields())
		assert.Equal(t, 0, lookups)
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _ := newTestService(t, &mockEventSource{GetEventFunc: func(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
			return catalog.Event{}, catalog.NewEventDoesNotExistsError("no such event", nil)
		}})

		_, err := svc.Start(context.Background(), uuid.New(), "user-1")

		assert.Equal(t, REASON_EVENT_NOT_AVAILABLE, reasonOf(t, err))
	})

	t.Run("catalog failure", func(t *testing.T) {
		svc, _ := newTestService(t, &mockEventSource{GetEventFunc: func(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
			return catalog.Event{}, errors.New("connection reset")
		}})

		_, err := svc.Start(context.Background(), uuid.New(), "user-1")

		assert.Equal(t, REASON_FAILED_TO_LOAD_CHECKOUT, reasonOf(t, err))
	})

	t.Run("sold out event", func(t *testing.T) {
		event := testEvent()
		for i := range event.Zones {
			event.Zones[i].Available = false
		}
		svc, _ := newTestService(t, &mockEventSource{GetEventFunc: func(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
			return event, nil
		}})

		_, err := svc.Start(context.Background(), event.ID, "user-1")

		assert.Equal(t, REASON_EVENT_NOT_AVAILABLE, reasonOf(t, err))
	})
}

func TestServicePay(t *testing.T) {
	event := testEvent()
	svc, f := newTestService(t, &mockEventSource{GetEventFunc: func(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
		return event, nil
	}})
	m, err := svc.Start(context.Background(), event.ID, "user-1")
	require.NoError(t, err)
	f.machine = m
	f.toPayment(t, vipSelection())

	t.Run("failed payment keeps the session", func(t *testing.T) {
		_, err := svc.Pay(context.Background(), m.ID())

		assert.Equal(t, REASON_PAYMENT_REQUIRED, reasonOf(t, err))
		_, err = svc.Get(m.ID())
		assert.NoError(t, err)
	})

	t.Run("confirmed session is dropped", func(t *testing.T) {
		f.readyCard(t, 1)

		outcome, err := svc.Pay(context.Background(), m.ID())

		require.NoError(t, err)
		assert.True(t, outcome.Succeeded())
		_, err = svc.Get(m.ID())
		assert.Equal(t, REASON_SESSION_NOT_FOUND, reasonOf(t, err))
	})

	t.Run("methods", func(t *testing.T) {
		assert.Equal(t, []payment.Method{payment.CARD, payment.WALLET}, svc.PaymentMethods())
	})
}
