package reservation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tonatiuh19/intelivoucher-checkout/validation"
)

type Attendee struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	IDNumber    string `json:"idNumber,omitempty"`
}

type Jersey struct {
	AttendeeIndex int    `json:"attendeeIndex"`
	Size          string `json:"size"`
	Type          string `json:"type"`
	Personalized  bool   `json:"personalized"`
	Name          string `json:"name,omitempty"`
	Number        string `json:"number,omitempty"`
}

type Transportation struct {
	Mode   string `json:"mode"`
	Origin string `json:"origin,omitempty"`
}

type Customer struct {
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// Request is the single finalized purchase sent once per paid checkout. Amounts are minor units.
type Request struct {
	UserID            string         `json:"userId"`
	EventID           string         `json:"eventId"`
	ZoneID            string         `json:"zoneId"`
	Quantity          int            `json:"quantity"`
	UnitPrice         int64          `json:"unitPrice"`
	Subtotal          int64          `json:"subtotal"`
	Taxes             int64          `json:"taxes"`
	Fees              int64          `json:"fees"`
	Discount          int64          `json:"discount"`
	Total             int64          `json:"total"`
	Currency          string         `json:"currency"`
	PaymentMethod     string         `json:"paymentMethod"`
	PaymentToken      string         `json:"paymentToken"`
	SettlementID      string         `json:"settlementId"`
	Installments      int            `json:"installments"`
	PurchaseReference string         `json:"purchaseReference"`
	Customer          Customer       `json:"customer"`
	Attendees         []Attendee     `json:"attendees"`
	Jerseys           []Jersey       `json:"jerseys,omitempty"`
	Transportation    Transportation `json:"transportation"`
}

type Ticket struct {
	ID           string `json:"id"`
	AttendeeName string `json:"attendeeName"`
	ZoneID       string `json:"zoneId"`
	Code         string `json:"code"`
}

type Reservation struct {
	ID                string   `json:"id"`
	TransactionID     string   `json:"transactionId"`
	Status            string   `json:"status"`
	PurchaseReference string   `json:"purchaseReference"`
	Tickets           []Ticket `json:"tickets"`
}

type Submitter interface {
	Submit(ctx context.Context, req Request) (Reservation, error)
}

// Validate mirrors the required-field set of the reservation service so a bad
// request is rejected before any network call.
func (r Request) Validate() error {
	var errs validation.Errors
	add := func(field, msg string) {
		errs = append(errs, validation.FieldError{Field: field, Message: msg})
	}

	if blank(r.UserID) {
		add("userId", "is required")
	}
	if blank(r.EventID) {
		add("eventId", "is required")
	}
	if blank(r.ZoneID) {
		add("zoneId", "is required")
	}
	if r.Quantity < 1 {
		add("quantity", "must be at least 1")
	}
	if r.UnitPrice < 0 || r.Subtotal < 0 || r.Total < 0 {
		add("total", "amounts cannot be negative")
	}
	if r.Subtotal+r.Taxes+r.Fees-r.Discount != r.Total {
		add("total", "does not match subtotal, taxes, fees and discount")
	}
	if blank(r.Currency) {
		add("currency", "is required")
	}
	if blank(r.PaymentMethod) {
		add("paymentMethod", "is required")
	}
	if blank(r.PaymentToken) {
		add("paymentToken", "is required")
	}
	if r.Installments < 1 {
		add("installments", "must be at least 1")
	}
	if !ValidPurchaseReference(r.PurchaseReference) {
		add("purchaseReference", "must look like INV-YYYYMMDD-HHMMSS-NNNN")
	}
	if len(r.Attendees) != r.Quantity {
		add("attendees", fmt.Sprintf("expected %d attendees, got %d", r.Quantity, len(r.Attendees)))
	}
	for i, a := range r.Attendees {
		if blank(a.FirstName) && blank(a.LastName) {
			add(fmt.Sprintf("attendees[%d].name", i), "is required")
		}
	}
	if blank(r.Transportation.Mode) {
		add("transportation.mode", "is required")
	}

	return errs.Err()
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

const purchaseReferenceLayout = "20060102-150405"

// NewPurchaseReference formats INV-YYYYMMDD-HHMMSS-NNNN from the given time and sequence.
func NewPurchaseReference(now time.Time, seq int) string {
	return fmt.Sprintf("INV-%s-%04d", now.UTC().Format(purchaseReferenceLayout), seq%10000)
}

func RandomPurchaseReference(now time.Time) string {
	return NewPurchaseReference(now, rand.IntN(10000))
}

func ValidPurchaseReference(ref string) bool {
	rest, ok := strings.CutPrefix(ref, "INV-")
	if !ok || len(rest) != len(purchaseReferenceLayout)+5 {
		return false
	}
	if _, err := time.Parse(purchaseReferenceLayout, rest[:len(purchaseReferenceLayout)]); err != nil {
		return false
	}
	suffix := rest[len(purchaseReferenceLayout):]
	if suffix[0] != '-' {
		return false
	}
	for _, c := range suffix[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
