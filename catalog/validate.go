package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// Validate checks that the event can be sold: it names a known currency, has
// zones with unique ids, and every price is non-negative and in the event currency.
func (e Event) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if e.ID == uuid.Nil {
		add("id is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		add("name is required")
	}
	if money.GetCurrency(e.Currency) == nil {
		add("currency %q is not a known currency code", e.Currency)
	}
	if len(e.Zones) == 0 {
		add("at least one zone is required")
	}

	seen := map[string]bool{}
	for i, z := range e.Zones {
		if z.ID == "" {
			add("zones[%d]: id is required", i)
		} else if seen[z.ID] {
			add("zones[%d]: duplicate id %q", i, z.ID)
		}
		seen[z.ID] = true
		if err := e.checkPrice(z.Price, true); err != nil {
			add("zones[%d].price: %w", i, err)
		}
	}

	seen = map[string]bool{}
	for i, o := range e.TransportationOptions {
		if o.ID == "" {
			add("transportationOptions[%d]: id is required", i)
		} else if seen[o.ID] {
			add("transportationOptions[%d]: duplicate id %q", i, o.ID)
		}
		seen[o.ID] = true
		if err := e.checkPrice(o.AdditionalCost, false); err != nil {
			add("transportationOptions[%d].additionalCost: %w", i, err)
		}
	}

	if err := e.checkPrice(e.JerseyPrice, e.JerseyAddonAvailable); err != nil {
		add("jerseyPrice: %w", err)
	}

	if len(problems) > 0 {
		return NewInvalidEventError(fmt.Sprintf("Event %q is invalid", e.ID), errors.Join(problems...))
	}
	return nil
}

func (e Event) checkPrice(m *money.Money, required bool) error {
	if m == nil {
		if required {
			return errors.New("is required")
		}
		return nil
	}
	if m.IsNegative() {
		return errors.New("cannot be negative")
	}
	if m.Currency().Code != e.Currency {
		return fmt.Errorf("currency %s does not match event currency %s", m.Currency().Code, e.Currency)
	}
	return nil
}
