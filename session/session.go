package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tonatiuh19/intelivoucher-checkout/hold"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
)

const (
	MinTickets = 1
	MaxTickets = 8

	TRANSPORT_NONE = "none"
)

type JerseyType string

const (
	JERSEY_LOCAL JerseyType = "local"
	JERSEY_AWAY  JerseyType = "away"
)

type JerseyChoice struct {
	Selected     bool
	Personalized bool
	Size         string
	Type         JerseyType
	Name         string
	Number       string
}

type Selection struct {
	TicketQuantity     int
	ZoneID             string
	TransportationMode string
	TransportOrigin    string
	Jerseys            []JerseyChoice
}

func (s Selection) SelectedJerseys() int {
	n := 0
	for _, j := range s.Jerseys {
		if j.Selected {
			n++
		}
	}
	return n
}

func (s Selection) HasTransport() bool {
	return s.TransportationMode != "" && s.TransportationMode != TRANSPORT_NONE
}

type Contact struct {
	Name  string
	Phone string
}

type Customer struct {
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	SpecialInstructions string
	EmergencyContact    *Contact
}

type Attendee struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth *time.Time
	IDNumber    string
}

func (a Attendee) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type PaymentInfo struct {
	Method       payment.Method
	Installments int
	Handle       *payment.Handle
	Token        *payment.Token
	Result       *payment.SettlementResult
}

// Session is the single mutable checkout aggregate. Only the checkout machine mutates it.
type Session struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	UserID    string
	Currency  string
	Step      Step
	Selection Selection
	Customer  Customer
	Attendees []Attendee
	Payment   PaymentInfo
	Hold      *hold.Timer
	CreatedAt time.Time
}

func New(id uuid.UUID, eventID uuid.UUID, userID string, currency string, timer *hold.Timer, now time.Time) *Session {
	s := &Session{
		ID:       id,
		EventID:  eventID,
		UserID:   userID,
		Currency: currency,
		Step:     SELECTION,
		Selection: Selection{
			TicketQuantity:     MinTickets,
			TransportationMode: TRANSPORT_NONE,
		},
		Payment:   PaymentInfo{Installments: 1},
		Hold:      timer,
		CreatedAt: now,
	}
	s.Resize(MinTickets)
	return s
}

// ApplySelection replaces the selection and keeps the attendee and jersey lists in
// step with the ticket quantity.
func (s *Session) ApplySelection(sel Selection) {
	jerseys := make([]JerseyChoice, len(sel.Jerseys))
	for i, j := range sel.Jerseys {
		j.Name = strings.ToUpper(strings.TrimSpace(j.Name))
		j.Number = strings.TrimSpace(j.Number)
		jerseys[i] = j
	}
	sel.Jerseys = jerseys
	sel.TransportOrigin = strings.TrimSpace(sel.TransportOrigin)
	if sel.TransportationMode == "" {
		sel.TransportationMode = TRANSPORT_NONE
	}

	s.Selection = sel
	s.Resize(sel.TicketQuantity)
}

// ClampQuantity bounds q to [MinTickets, MaxTickets]. The attendee and jersey lists
// are always sized to the clamped value, even while an out-of-range quantity waits
// to be rejected by validation.
func ClampQuantity(q int) int {
	return min(max(q, MinTickets), MaxTickets)
}

// Resize grows or shrinks the attendee and jersey lists, keeping entries by index.
func (s *Session) Resize(q int) {
	n := ClampQuantity(q)

	attendees := make([]Attendee, n)
	copy(attendees, s.Attendees)
	s.Attendees = attendees

	jerseys := make([]JerseyChoice, n)
	copy(jerseys, s.Selection.Jerseys)
	s.Selection.Jerseys = jerseys

	s.SyncPrimaryAttendee()
}

func (s *Session) ApplyCustomer(c Customer) {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	s.Customer = c
	s.SyncPrimaryAttendee()
}

// ApplyAttendees merges attendee data by index. The contact fields of the first
// attendee always come from the customer and are ignored here.
func (s *Session) ApplyAttendees(in []Attendee) {
	for i := 0; i < len(in) && i < len(s.Attendees); i++ {
		a := in[i]
		if i == 0 {
			s.Attendees[0].DateOfBirth = a.DateOfBirth
			s.Attendees[0].IDNumber = strings.TrimSpace(a.IDNumber)
			continue
		}
		a.FirstName = strings.TrimSpace(a.FirstName)
		a.LastName = strings.TrimSpace(a.LastName)
		a.IDNumber = strings.TrimSpace(a.IDNumber)
		s.Attendees[i] = a
	}
	s.SyncPrimaryAttendee()
}

func (s *Session) SyncPrimaryAttendee() {
	if len(s.Attendees) == 0 {
		return
	}
	s.Attendees[0].FirstName = s.Customer.FirstName
	s.Attendees[0].LastName = s.Customer.LastName
	s.Attendees[0].Email = s.Customer.Email
	s.Attendees[0].Phone = s.Customer.Phone
}

// CheckInvariants verifies the structural invariants of the aggregate.
func (s *Session) CheckInvariants() error {
	q := ClampQuantity(s.Selection.TicketQuantity)
	if len(s.Attendees) != q {
		return fmt.Errorf("attendee count %d does not match ticket quantity %d", len(s.Attendees), q)
	}
	if len(s.Selection.Jerseys) != q {
		return fmt.Errorf("jersey count %d does not match ticket quantity %d", len(s.Selection.Jerseys), q)
	}
	primary := s.Attendees[0]
	if primary.FirstName != s.Customer.FirstName || primary.LastName != s.Customer.LastName ||
		primary.Email != s.Customer.Email || primary.Phone != s.Customer.Phone {
		return fmt.Errorf("primary attendee is out of sync with the customer")
	}
	return nil
}
