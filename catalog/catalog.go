package catalog

import (
	"context"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// Event is the read-only catalog record a checkout is built from.
type Event struct {
	ID                    uuid.UUID
	Version               int
	Name                  string
	Venue                 string
	StartTime             time.Time
	Currency              string
	Zones                 []Zone
	TransportationOptions []TransportationOption
	JerseyAddonAvailable  bool
	JerseyPrice           *money.Money
}

type Zone struct {
	ID        string
	Name      string
	Price     *money.Money
	Available bool
}

type TransportationOption struct {
	ID             string
	Name           string
	AdditionalCost *money.Money
	Available      bool
}

type Repository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (Event, error)
	CreateEvent(ctx context.Context, event Event) error
}

// AvailableZone returns the zone with the given id only if it can be sold.
func (e Event) AvailableZone(id string) (Zone, bool) {
	for _, z := range e.Zones {
		if z.ID == id && z.Available {
			return z, true
		}
	}
	return Zone{}, false
}

func (e Event) AvailableZoneIDs() []string {
	ids := []string{}
	for _, z := range e.Zones {
		if z.Available {
			ids = append(ids, z.ID)
		}
	}
	return ids
}

func (e Event) TransportationOption(id string) (TransportationOption, bool) {
	for _, o := range e.TransportationOptions {
		if o.ID == id && o.Available {
			return o, true
		}
	}
	return TransportationOption{}, false
}

// TransportFees maps each available transportation option to its per-person cost in minor units.
func (e Event) TransportFees() map[string]int64 {
	fees := make(map[string]int64, len(e.TransportationOptions))
	for _, o := range e.TransportationOptions {
		if !o.Available {
			continue
		}
		fees[o.ID] = amountOrZero(o.AdditionalCost)
	}
	return fees
}

// JerseyUnitPrice is zero when the add-on is not offered.
func (e Event) JerseyUnitPrice() int64 {
	if !e.JerseyAddonAvailable {
		return 0
	}
	return amountOrZero(e.JerseyPrice)
}

func amountOrZero(m *money.Money) int64 {
	if m == nil {
		return 0
	}
	return m.Amount()
}
