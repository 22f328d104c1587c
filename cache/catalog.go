package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/slices"
	"golang.org/x/sync/singleflight"
)

var _ catalog.Repository = &Catalog{}

// Catalog is a read-through cache in front of a catalog repository. Concurrent
// misses for the same event load it once. Redis failures fall back to the repository.
type Catalog struct {
	next   catalog.Repository
	store  store
	sfg    singleflight.Group
	logger *slog.Logger
}

func NewCatalog(client *redis.Client, next catalog.Repository, ttl time.Duration, logger *slog.Logger) *Catalog {
	return &Catalog{
		next:   next,
		store:  newStore(client, ttl),
		logger: logger,
	}
}

type cachedEvent struct {
	ID                    uuid.UUID         `json:"id"`
	Version               int               `json:"version"`
	Name                  string            `json:"name"`
	Venue                 string            `json:"venue"`
	StartTime             time.Time         `json:"startTime"`
	Currency              string            `json:"currency"`
	Zones                 []cachedZone      `json:"zones"`
	TransportationOptions []cachedTransport `json:"transportationOptions"`
	JerseyAddonAvailable  bool              `json:"jerseyAddonAvailable"`
	JerseyPrice           int64             `json:"jerseyPrice"`
}

type cachedZone struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
}

type cachedTransport struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AdditionalCost int64  `json:"additionalCost"`
	Available      bool   `json:"available"`
}

func eventKey(id uuid.UUID) string {
	return fmt.Sprintf("catalog:event:%s", id)
}

func toCachedEvent(e catalog.Event) cachedEvent {
	return cachedEvent{
		ID:        e.ID,
		Version:   e.Version,
		Name:      e.Name,
		Venue:     e.Venue,
		StartTime: e.StartTime,
		Currency:  e.Currency,
		Zones: slices.Map(e.Zones, func(z catalog.Zone) cachedZone {
			return cachedZone{ID: z.ID, Name: z.Name, Price: amount(z.Price), Available: z.Available}
		}),
		TransportationOptions: slices.Map(e.TransportationOptions, func(o catalog.TransportationOption) cachedTransport {
			return cachedTransport{ID: o.ID, Name: o.Name, AdditionalCost: amount(o.AdditionalCost), Available: o.Available}
		}),
		JerseyAddonAvailable: e.JerseyAddonAvailable,
		JerseyPrice:          amount(e.JerseyPrice),
	}
}

func (c cachedEvent) event() catalog.Event {
	return catalog.Event{
		ID:        c.ID,
		Version:   c.Version,
		Name:      c.Name,
		Venue:     c.Venue,
		StartTime: c.StartTime,
		Currency:  c.Currency,
		Zones: slices.Map(c.Zones, func(z cachedZone) catalog.Zone {
			return catalog.Zone{ID: z.ID, Name: z.Name, Price: money.New(z.Price, c.Currency), Available: z.Available}
		}),
		TransportationOptions: slices.Map(c.TransportationOptions, func(o cachedTransport) catalog.TransportationOption {
			return catalog.TransportationOption{ID: o.ID, Name: o.Name, AdditionalCost: money.New(o.AdditionalCost, c.Currency), Available: o.Available}
		}),
		JerseyAddonAvailable: c.JerseyAddonAvailable,
		JerseyPrice:          money.New(c.JerseyPrice, c.Currency),
	}
}

func amount(m *money.Money) int64 {
	if m == nil {
		return 0
	}
	return m.Amount()
}

func (c *Catalog) GetEvent(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
	key := eventKey(id)

	v, err, _ := c.sfg.Do(key, func() (any, error) {
		var cached cachedEvent
		err := c.store.get(ctx, key, &cached)
		if err == nil {
			return cached.event(), nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}

		event, err := c.next.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := c.store.set(ctx, key, toCachedEvent(event)); err != nil {
			c.logger.Warn("catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return event, nil
	})
	if err != nil {
		return catalog.Event{}, err
	}

	return v.(catalog.Event), nil
}

// CreateEvent writes through and drops any stale cached copy.
func (c *Catalog) CreateEvent(ctx context.Context, event catalog.Event) error {
	if err := c.next.CreateEvent(ctx, event); err != nil {
		return err
	}

	if err := c.store.delete(ctx, eventKey(event.ID)); err != nil {
		c.logger.Warn("catalog cache invalidation failed", slog.String("eventId", event.ID.String()), slog.String("error", err.Error()))
	}
	return nil
}
