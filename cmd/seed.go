package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
)

// seedFile is the document accepted by the seed subcommand. Amounts are in
// minor units of the event currency.
type seedFile struct {
	Event       seedEvent     `json:"event"`
	PaymentKeys []payment.Key `json:"paymentKeys"`
}

type seedEvent struct {
	ID                    uuid.UUID       `json:"id"`
	Name                  string          `json:"name"`
	Venue                 string          `json:"venue"`
	StartTime             time.Time       `json:"startTime"`
	Currency              string          `json:"currency"`
	Zones                 []seedZone      `json:"zones"`
	TransportationOptions []seedTransport `json:"transportationOptions"`
	JerseyAddonAvailable  bool            `json:"jerseyAddonAvailable"`
	JerseyPrice           int64           `json:"jerseyPrice"`
}

type seedZone struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
}

type seedTransport struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AdditionalCost int64  `json:"additionalCost"`
	Available      bool   `json:"available"`
}

func (s seedEvent) event() catalog.Event {
	currency := s.Currency
	if currency == "" {
		currency = money.MXN
	}

	e := catalog.Event{
		ID:                    s.ID,
		Version:               1,
		Name:                  s.Name,
		Venue:                 s.Venue,
		StartTime:             s.StartTime.UTC(),
		Currency:              currency,
		Zones:                 make([]catalog.Zone, 0, len(s.Zones)),
		TransportationOptions: make([]catalog.TransportationOption, 0, len(s.TransportationOptions)),
		JerseyAddonAvailable:  s.JerseyAddonAvailable,
		JerseyPrice:           money.New(s.JerseyPrice, currency),
	}
	for _, z := range s.Zones {
		e.Zones = append(e.Zones, catalog.Zone{
			ID:        z.ID,
			Name:      z.Name,
			Price:     money.New(z.Price, currency),
			Available: z.Available,
		})
	}
	for _, t := range s.TransportationOptions {
		e.TransportationOptions = append(e.TransportationOptions, catalog.TransportationOption{
			ID:             t.ID,
			Name:           t.Name,
			AdditionalCost: money.New(t.AdditionalCost, currency),
			Available:      t.Available,
		})
	}
	return e
}

func readSeedFile(path string) (seedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	var seed seedFile
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return seedFile{}, fmt.Errorf("failed to decode seed file: %w", err)
	}
	if seed.Event.ID == uuid.Nil {
		return seedFile{}, fmt.Errorf("seed event is missing an id")
	}
	return seed, nil
}

func runSeed(ctx context.Context, settings Settings, logger *slog.Logger, path string) error {
	seed, err := readSeedFile(path)
	if err != nil {
		return err
	}

	awsCfg, err := loadAWSConfig(ctx, settings)
	if err != nil {
		return err
	}
	db := newDB(awsCfg, settings)

	if err := db.CreateEvent(ctx, seed.Event.event()); err != nil {
		return err
	}
	logger.Info("created event", slog.String("id", seed.Event.ID.String()), slog.String("name", seed.Event.Name))

	for _, k := range seed.PaymentKeys {
		if err := db.PutPaymentKey(ctx, k); err != nil {
			return err
		}
		logger.Info("stored payment key", slog.String("title", k.Title))
	}
	return nil
}
