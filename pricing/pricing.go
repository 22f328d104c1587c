package pricing

import (
	"github.com/Rhymond/go-money"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
)

// Fees are the flat per-order charges added on top of the selection.
type Fees struct {
	Service    int64
	Processing int64
}

type Input struct {
	Currency        string
	Selection       session.Selection
	ZonePrice       int64
	TransportFees   map[string]int64
	JerseyUnitPrice int64
	ServiceFee      int64
	ProcessingFee   int64
	Discount        int64
}

// Breakdown holds every component of an order total in minor units.
type Breakdown struct {
	Currency      string
	UnitPrice     int64
	Quantity      int
	Subtotal      int64
	TransportFee  int64
	JerseyFee     int64
	ServiceFee    int64
	ProcessingFee int64
	Discount      int64
	Total         int64
}

// ComputeTotal is pure. The same input always yields the same breakdown.
func ComputeTotal(in Input) Breakdown {
	q := int64(in.Selection.TicketQuantity)

	var transport int64
	if in.Selection.HasTransport() {
		transport = in.TransportFees[in.Selection.TransportationMode] * q
	}

	b := Breakdown{
		Currency:      in.Currency,
		UnitPrice:     in.ZonePrice,
		Quantity:      in.Selection.TicketQuantity,
		Subtotal:      in.ZonePrice * q,
		TransportFee:  transport,
		JerseyFee:     int64(in.Selection.SelectedJerseys()) * in.JerseyUnitPrice,
		ServiceFee:    in.ServiceFee,
		ProcessingFee: in.ProcessingFee,
		Discount:      in.Discount,
	}
	b.Total = b.Subtotal + b.TransportFee + b.JerseyFee + b.ServiceFee + b.ProcessingFee - b.Discount
	return b
}

// InputFromEvent resolves catalog prices for a selection. An unknown or unavailable zone prices at zero.
func InputFromEvent(event catalog.Event, sel session.Selection, fees Fees, discount int64) Input {
	var zonePrice int64
	if z, ok := event.AvailableZone(sel.ZoneID); ok && z.Price != nil {
		zonePrice = z.Price.Amount()
	}
	return Input{
		Currency:        event.Currency,
		Selection:       sel,
		ZonePrice:       zonePrice,
		TransportFees:   event.TransportFees(),
		JerseyUnitPrice: event.JerseyUnitPrice(),
		ServiceFee:      fees.Service,
		ProcessingFee:   fees.Processing,
		Discount:        discount,
	}
}

// Fees exclusive of the base ticket subtotal.
func (b Breakdown) Fees() int64 {
	return b.TransportFee + b.JerseyFee + b.ServiceFee + b.ProcessingFee
}

// Money returns the total as a go-money value in the breakdown currency.
func (b Breakdown) Money() *money.Money {
	return money.New(b.Total, b.Currency)
}

// Display formats the breakdown for presentation, e.g. "$1,210.49".
func (b Breakdown) Display() DisplayBreakdown {
	f := func(v int64) string {
		return money.New(v, b.Currency).Display()
	}
	return DisplayBreakdown{
		Currency:      b.Currency,
		UnitPrice:     f(b.UnitPrice),
		Subtotal:      f(b.Subtotal),
		TransportFee:  f(b.TransportFee),
		JerseyFee:     f(b.JerseyFee),
		ServiceFee:    f(b.ServiceFee),
		ProcessingFee: f(b.ProcessingFee),
		Discount:      f(b.Discount),
		Total:         f(b.Total),
	}
}

type DisplayBreakdown struct {
	Currency      string `json:"currency"`
	UnitPrice     string `json:"unitPrice"`
	Subtotal      string `json:"subtotal"`
	TransportFee  string `json:"transportFee"`
	JerseyFee     string `json:"jerseyFee"`
	ServiceFee    string `json:"serviceFee"`
	ProcessingFee string `json:"processingFee"`
	Discount      string `json:"discount"`
	Total         string `json:"total"`
}
