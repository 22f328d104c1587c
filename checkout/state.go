package checkout

import (
	"slices"

	"github.com/google/uuid"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/pricing"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
)

type HoldState struct {
	RemainingSeconds int
	Low              bool
	Expired          bool
	BoundStep        string
}

// State is a copy of the session safe to hand to callers.
type State struct {
	SessionID        uuid.UUID
	EventID          uuid.UUID
	Step             session.Step
	Selection        session.Selection
	Customer         session.Customer
	Attendees        []session.Attendee
	Payment          session.PaymentInfo
	Price            pricing.Breakdown
	PriceFrozen      bool
	Hold             HoldState
	AvailableMethods []payment.Method
	Outcome          *Outcome
	Busy             bool
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	sel := s.Selection
	sel.Jerseys = slices.Clone(s.Selection.Jerseys)

	customer := s.Customer
	if customer.EmergencyContact != nil {
		ec := *customer.EmergencyContact
		customer.EmergencyContact = &ec
	}

	var outcome *Outcome
	if m.outcome != nil {
		o := *m.outcome
		outcome = &o
	}

	return State{
		SessionID:   s.ID,
		EventID:     s.EventID,
		Step:        s.Step,
		Selection:   sel,
		Customer:    customer,
		Attendees:   slices.Clone(s.Attendees),
		Payment:     s.Payment,
		Price:       m.priceLocked(),
		PriceFrozen: m.snapshot != nil,
		Hold: HoldState{
			RemainingSeconds: s.Hold.RemainingSeconds(),
			Low:              s.Hold.IsLow(),
			Expired:          s.Hold.Expired(),
			BoundStep:        s.Hold.BoundStep,
		},
		AvailableMethods: m.deps.Payments.Available(),
		Outcome:          outcome,
		Busy:             m.busy,
	}
}
