package checkout

import (
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
)

// StepData is the data one step owns. Only the variants below implement it.
type StepData interface {
	step() session.Step
}

type SelectionData struct {
	Selection session.Selection
}

func (SelectionData) step() session.Step { return session.SELECTION }

type CustomerData struct {
	Customer session.Customer
}

func (CustomerData) step() session.Step { return session.CUSTOMER_INFO }

type AttendeeData struct {
	Attendees []session.Attendee
}

func (AttendeeData) step() session.Step { return session.ATTENDEE_INFO }

// PaymentData selects the method and plan. Card data never comes through here.
type PaymentData struct {
	Method       payment.Method
	Installments int
}
