package checkout

import (
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/pricing"
	"github.com/tonatiuh19/intelivoucher-checkout/reservation"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
	"github.com/tonatiuh19/intelivoucher-checkout/slices"
)

const dateOfBirthLayout = "2006-01-02"

// buildRequestLocked assembles the reservation from the frozen price. Prices are tax
// inclusive, so taxes are always zero.
func (m *Machine) buildRequestLocked(price pricing.Breakdown, result payment.SettlementResult, reference string) reservation.Request {
	s := m.session

	var jerseys []reservation.Jersey
	for i, j := range s.Selection.Jerseys {
		if !j.Selected {
			continue
		}
		jerseys = append(jerseys, reservation.Jersey{
			AttendeeIndex: i,
			Size:          j.Size,
			Type:          string(j.Type),
			Personalized:  j.Personalized,
			Name:          j.Name,
			Number:        j.Number,
		})
	}

	transport := reservation.Transportation{Mode: s.Selection.TransportationMode}
	if s.Selection.HasTransport() {
		transport.Origin = s.Selection.TransportOrigin
	}

	token := ""
	if s.Payment.Token != nil {
		token = s.Payment.Token.Value
	}

	return reservation.Request{
		UserID:            s.UserID,
		EventID:           s.EventID.String(),
		ZoneID:            s.Selection.ZoneID,
		Quantity:          s.Selection.TicketQuantity,
		UnitPrice:         price.UnitPrice,
		Subtotal:          price.Subtotal,
		Taxes:             0,
		Fees:              price.Fees(),
		Discount:          price.Discount,
		Total:             price.Total,
		Currency:          price.Currency,
		PaymentMethod:     string(s.Payment.Method),
		PaymentToken:      token,
		SettlementID:      result.ID,
		Installments:      max(result.Installments, 1),
		PurchaseReference: reference,
		Customer: reservation.Customer{
			FirstName:           s.Customer.FirstName,
			LastName:            s.Customer.LastName,
			Email:               s.Customer.Email,
			Phone:               s.Customer.Phone,
			SpecialInstructions: s.Customer.SpecialInstructions,
		},
		Attendees:      slices.Map(s.Attendees, toReservationAttendee),
		Jerseys:        jerseys,
		Transportation: transport,
	}
}

func toReservationAttendee(a session.Attendee) reservation.Attendee {
	out := reservation.Attendee{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		IDNumber:  a.IDNumber,
	}
	if a.DateOfBirth != nil {
		out.DateOfBirth = a.DateOfBirth.Format(dateOfBirthLayout)
	}
	return out
}
