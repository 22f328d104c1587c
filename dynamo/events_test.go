package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
)

func testEvent() catalog.Event {
	return catalog.Event{
		ID:        uuid.New(),
		Version:   1,
		Name:      "Clásico Regio",
		Venue:     "Estadio BBVA",
		StartTime: time.Now().UTC().Truncate(time.Second),
		Currency:  "MXN",
		Zones: []catalog.Zone{
			{ID: "vip", Name: "VIP", Price: money.New(59900, "MXN"), Available: true},
			{ID: "general", Name: "General", Price: money.New(25000, "MXN"), Available: false},
		},
		TransportationOptions: []catalog.TransportationOption{
			{ID: "bus", Name: "Autobús", AdditionalCost: money.New(35000, "MXN"), Available: true},
		},
		JerseyAddonAvailable: true,
		JerseyPrice:          money.New(120000, "MXN"),
	}
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("successfully create an event", func(t *testing.T) {
		resetTable(ctx)

		require.NoError(t, db.CreateEvent(ctx, testEvent()))
	})

	t.Run("fail to create an event that already exists", func(t *testing.T) {
		resetTable(ctx)
		event := testEvent()

		require.NoError(t, db.CreateEvent(ctx, event))

		err := db.CreateEvent(ctx, event)
		require.Error(t, err)
		var catalogErr *catalog.Error
		require.ErrorAs(t, err, &catalogErr)
		assert.Equal(t, catalog.REASON_EVENT_ALREADY_EXISTS, catalogErr.Reason)
	})

	t.Run("reject an event that cannot be sold", func(t *testing.T) {
		resetTable(ctx)
		event := testEvent()
		event.Zones = nil

		err := db.CreateEvent(ctx, event)

		var catalogErr *catalog.Error
		require.ErrorAs(t, err, &catalogErr)
		assert.Equal(t, catalog.REASON_INVALID_EVENT, catalogErr.Reason)

		_, err = db.GetEvent(ctx, event.ID)
		require.ErrorAs(t, err, &catalogErr)
		assert.Equal(t, catalog.REASON_EVENT_DOES_NOT_EXIST, catalogErr.Reason)
	})

	t.Run("fail to create an event with a version other than 1", func(t *testing.T) {
		resetTable(ctx)
		event := testEvent()
		event.Version = 2

		err := db.CreateEvent(ctx, event)

		var catalogErr *catalog.Error
		require.ErrorAs(t, err, &catalogErr)
		assert.Equal(t, catalog.REASON_EVENT_ALREADY_EXISTS, catalogErr.Reason)
	})
}

func TestGetEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips every field", func(t *testing.T) {
		resetTable(ctx)
		event := testEvent()
		require.NoError(t, db.CreateEvent(ctx, event))

		got, err := db.GetEvent(ctx, event.ID)

		require.NoError(t, err)
		assert.Equal(t, event, got)
	})

	t.Run("event does not exist", func(t *testing.T) {
		resetTable(ctx)

		_, err := db.GetEvent(ctx, uuid.New())

		var catalogErr *catalog.Error
		require.ErrorAs(t, err, &catalogErr)
		assert.Equal(t, catalog.REASON_EVENT_DOES_NOT_EXIST, catalogErr.Reason)
	})
}
