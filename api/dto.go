package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/tonatiuh19/intelivoucher-checkout/checkout"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/pricing"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
	"github.com/tonatiuh19/intelivoucher-checkout/slices"
	"github.com/tonatiuh19/intelivoucher-checkout/validation"
)

const dateLayout = "2006-01-02"

type StartCheckoutRequest struct {
	EventID openapi_types.UUID `json:"eventId"`
	UserID  string             `json:"userId"`
}

type Jersey struct {
	Selected     bool   `json:"selected"`
	Personalized bool   `json:"personalized"`
	Size         string `json:"size,omitempty"`
	Type         string `json:"type,omitempty"`
	Name         string `json:"name,omitempty"`
	Number       string `json:"number,omitempty"`
}

type Selection struct {
	TicketQuantity     int      `json:"ticketQuantity"`
	ZoneID             string   `json:"zoneId"`
	TransportationMode string   `json:"transportationMode"`
	TransportOrigin    string   `json:"transportOrigin,omitempty"`
	Jerseys            []Jersey `json:"jerseys"`
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Customer struct {
	FirstName           string   `json:"firstName"`
	LastName            string   `json:"lastName"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`
	EmergencyContact    *Contact `json:"emergencyContact,omitempty"`
}

type Attendee struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	IDNumber    string `json:"idNumber,omitempty"`
}

type AttendeesRequest struct {
	Attendees []Attendee `json:"attendees"`
}

type PreparePaymentRequest struct {
	Method       string `json:"method"`
	Installments int    `json:"installments"`
}

type Card struct {
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	HolderName string `json:"holderName"`
}

type TokenizeRequest struct {
	ClientToken string `json:"clientToken,omitempty"`
	Card        *Card  `json:"card,omitempty"`
	ReturnURL   string `json:"returnUrl,omitempty"`
	CancelURL   string `json:"cancelUrl,omitempty"`
}

type Payment struct {
	Method         string `json:"method,omitempty"`
	Installments   int    `json:"installments"`
	Prepared       bool   `json:"prepared"`
	PublishableKey string `json:"publishableKey,omitempty"`
	Tokenized      bool   `json:"tokenized"`
	Brand          string `json:"brand,omitempty"`
	Last4          string `json:"last4,omitempty"`
	ApprovalURL    string `json:"approvalUrl,omitempty"`
}

type Price struct {
	UnitPrice     int64                    `json:"unitPrice"`
	Quantity      int                      `json:"quantity"`
	Subtotal      int64                    `json:"subtotal"`
	TransportFee  int64                    `json:"transportFee"`
	JerseyFee     int64                    `json:"jerseyFee"`
	ServiceFee    int64                    `json:"serviceFee"`
	ProcessingFee int64                    `json:"processingFee"`
	Discount      int64                    `json:"discount"`
	Total         int64                    `json:"total"`
	Currency      string                   `json:"currency"`
	Frozen        bool                     `json:"frozen"`
	Display       pricing.DisplayBreakdown `json:"display"`
}

type Hold struct {
	RemainingSeconds int    `json:"remainingSeconds"`
	Low              bool   `json:"low"`
	Expired          bool   `json:"expired"`
	Step             string `json:"step"`
}

type RecoveryResponse struct {
	SupportContact    string `json:"supportContact"`
	PurchaseReference string `json:"purchaseReference"`
	SettlementID      string `json:"settlementId"`
	Message           string `json:"message"`
}

type Confirmation struct {
	ReservationID     string   `json:"reservationId"`
	TransactionID     string   `json:"transactionId,omitempty"`
	Status            string   `json:"status"`
	PurchaseReference string   `json:"purchaseReference"`
	SettlementID      string   `json:"settlementId"`
	TicketIDs         []string `json:"ticketIds,omitempty"`
}

type CheckoutResponse struct {
	SessionID        uuid.UUID         `json:"sessionId"`
	EventID          uuid.UUID         `json:"eventId"`
	Step             string            `json:"step"`
	Selection        Selection         `json:"selection"`
	Customer         Customer          `json:"customer"`
	Attendees        []Attendee        `json:"attendees"`
	Payment          Payment           `json:"payment"`
	Price            Price             `json:"price"`
	Hold             Hold              `json:"hold"`
	AvailableMethods []string          `json:"availableMethods"`
	Busy             bool              `json:"busy"`
	Confirmation     *Confirmation     `json:"confirmation,omitempty"`
	Recovery         *RecoveryResponse `json:"recovery,omitempty"`
}

type InstallmentsResponse struct {
	Eligible          bool   `json:"eligible"`
	MaxInstallments   int    `json:"maxInstallments"`
	InstallmentAmount int64  `json:"installmentAmount"`
	Display           string `json:"display"`
}

type PaymentMethodsResponse struct {
	Methods []string `json:"methods"`
}

func selectionToSession(s Selection) session.Selection {
	return session.Selection{
		TicketQuantity:     s.TicketQuantity,
		ZoneID:             s.ZoneID,
		TransportationMode: s.TransportationMode,
		TransportOrigin:    s.TransportOrigin,
		Jerseys: slices.Map(s.Jerseys, func(j Jersey) session.JerseyChoice {
			return session.JerseyChoice{
				Selected:     j.Selected,
				Personalized: j.Personalized,
				Size:         j.Size,
				Type:         session.JerseyType(strings.ToLower(j.Type)),
				Name:         j.Name,
				Number:       j.Number,
			}
		}),
	}
}

func selectionToApi(s session.Selection) Selection {
	return Selection{
		TicketQuantity:     s.TicketQuantity,
		ZoneID:             s.ZoneID,
		TransportationMode: s.TransportationMode,
		TransportOrigin:    s.TransportOrigin,
		Jerseys: slices.Map(s.Jerseys, func(j session.JerseyChoice) Jersey {
			return Jersey{
				Selected:     j.Selected,
				Personalized: j.Personalized,
				Size:         j.Size,
				Type:         string(j.Type),
				Name:         j.Name,
				Number:       j.Number,
			}
		}),
	}
}

func customerToSession(c Customer) session.Customer {
	out := session.Customer{
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		Email:               c.Email,
		Phone:               c.Phone,
		SpecialInstructions: c.SpecialInstructions,
	}
	if c.EmergencyContact != nil {
		out.EmergencyContact = &session.Contact{Name: c.EmergencyContact.Name, Phone: c.EmergencyContact.Phone}
	}
	return out
}

func customerToApi(c session.Customer) Customer {
	out := Customer{
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		Email:               c.Email,
		Phone:               c.Phone,
		SpecialInstructions: c.SpecialInstructions,
	}
	if c.EmergencyContact != nil {
		out.EmergencyContact = &Contact{Name: c.EmergencyContact.Name, Phone: c.EmergencyContact.Phone}
	}
	return out
}

// attendeesToSession parses dates of birth. Unparseable dates are reported per field
// in the same shape as the other validation failures.
func attendeesToSession(in []Attendee) ([]session.Attendee, validation.Errors) {
	var errs validation.Errors
	out := make([]session.Attendee, 0, len(in))
	for i, a := range in {
		attendee := session.Attendee{
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Email:     a.Email,
			Phone:     a.Phone,
			IDNumber:  a.IDNumber,
		}
		if a.DateOfBirth != "" {
			dob, err := time.Parse(dateLayout, a.DateOfBirth)
			if err != nil {
				errs = append(errs, validation.FieldError{
					Field:   fmt.Sprintf("attendees[%d].dateOfBirth", i),
					Message: "must be a date in YYYY-MM-DD format",
				})
			} else {
				attendee.DateOfBirth = &dob
			}
		}
		out = append(out, attendee)
	}
	return out, errs
}

func attendeeToApi(a session.Attendee) Attendee {
	out := Attendee{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		IDNumber:  a.IDNumber,
	}
	if a.DateOfBirth != nil {
		out.DateOfBirth = a.DateOfBirth.Format(dateLayout)
	}
	return out
}

func tokenizeToDetails(req TokenizeRequest) payment.Details {
	details := payment.Details{
		ClientToken: req.ClientToken,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
	}
	if req.Card != nil {
		details.Card = &payment.CardDetails{
			Number:     req.Card.Number,
			Expiry:     req.Card.Expiry,
			CVV:        req.Card.CVV,
			HolderName: req.Card.HolderName,
		}
	}
	return details
}

// paymentToApi never exposes the token value itself.
func paymentToApi(p session.PaymentInfo) Payment {
	out := Payment{
		Method:       string(p.Method),
		Installments: p.Installments,
		Prepared:     p.Handle != nil,
		Tokenized:    p.Token != nil,
	}
	if p.Handle != nil {
		out.PublishableKey = p.Handle.PublishableKey
	}
	if p.Token != nil {
		out.Brand = p.Token.Brand
		out.Last4 = p.Token.Last4
		out.ApprovalURL = p.Token.ApprovalURL
	}
	return out
}

func priceToApi(b pricing.Breakdown, frozen bool) Price {
	return Price{
		UnitPrice:     b.UnitPrice,
		Quantity:      b.Quantity,
		Subtotal:      b.Subtotal,
		TransportFee:  b.TransportFee,
		JerseyFee:     b.JerseyFee,
		ServiceFee:    b.ServiceFee,
		ProcessingFee: b.ProcessingFee,
		Discount:      b.Discount,
		Total:         b.Total,
		Currency:      b.Currency,
		Frozen:        frozen,
		Display:       b.Display(),
	}
}

func recoveryToResponse(r checkout.Recovery) *RecoveryResponse {
	return &RecoveryResponse{
		SupportContact:    r.SupportContact,
		PurchaseReference: r.PurchaseReference,
		SettlementID:      r.SettlementID,
		Message:           r.Message,
	}
}

func methodsToApi(methods []payment.Method) []string {
	return slices.Map(methods, func(m payment.Method) string { return string(m) })
}

func stateToApi(s checkout.State) CheckoutResponse {
	resp := CheckoutResponse{
		SessionID: s.SessionID,
		EventID:   s.EventID,
		Step:      s.Step.String(),
		Selection: selectionToApi(s.Selection),
		Customer:  customerToApi(s.Customer),
		Attendees: slices.Map(s.Attendees, attendeeToApi),
		Payment:   paymentToApi(s.Payment),
		Price:     priceToApi(s.Price, s.PriceFrozen),
		Hold: Hold{
			RemainingSeconds: s.Hold.RemainingSeconds,
			Low:              s.Hold.Low,
			Expired:          s.Hold.Expired,
			Step:             s.Hold.BoundStep,
		},
		AvailableMethods: methodsToApi(s.AvailableMethods),
		Busy:             s.Busy,
	}

	if o := s.Outcome; o != nil {
		if o.Reservation != nil {
			resp.Confirmation = &Confirmation{
				ReservationID:     o.Reservation.ID,
				TransactionID:     o.Reservation.TransactionID,
				Status:            o.Reservation.Status,
				PurchaseReference: o.Request.PurchaseReference,
				SettlementID:      o.Settlement.ID,
			}
			for _, t := range o.Reservation.Tickets {
				resp.Confirmation.TicketIDs = append(resp.Confirmation.TicketIDs, t.ID)
			}
		}
		if o.Failure != nil {
			resp.Recovery = recoveryToResponse(*o.Failure)
		}
	}
	return resp
}

func eligibilityToApi(e payment.Eligibility, currency string) InstallmentsResponse {
	return InstallmentsResponse{
		Eligible:          e.Eligible,
		MaxInstallments:   e.MaxInstallments,
		InstallmentAmount: e.InstallmentAmount,
		Display:           money.New(e.InstallmentAmount, currency).Display(),
	}
}
