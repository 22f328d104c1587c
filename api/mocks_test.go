package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/reservation"
)

var _ payment.Provider = &mockProvider{}

type mockProvider struct {
	MethodValue payment.Method
	SettleFunc  func(ctx context.Context, req payment.SettleRequest) (payment.SettlementResult, error)
}

func (m *mockProvider) Method() payment.Method {
	return m.MethodValue
}

func (m *mockProvider) Prepare(ctx context.Context, amount int64, currency string) (payment.Handle, error) {
	return payment.Handle{Method: m.MethodValue, Amount: amount, Currency: currency, PublishableKey: "pk_test"}, nil
}

func (m *mockProvider) Tokenize(ctx context.Context, handle payment.Handle, details payment.Details) (payment.Token, error) {
	return payment.Token{Method: m.MethodValue, Value: "tok_test", Brand: "visa", Last4: "4242"}, nil
}

func (m *mockProvider) Settle(ctx context.Context, req payment.SettleRequest) (payment.SettlementResult, error) {
	if m.SettleFunc != nil {
		return m.SettleFunc(ctx, req)
	}
	return payment.SettlementResult{ID: "pi_test", Status: payment.SETTLEMENT_SUCCEEDED, Installments: req.Installments}, nil
}

func (m *mockProvider) CheckInstallmentEligibility(ctx context.Context, token payment.Token, amount int64) (payment.Eligibility, error) {
	return payment.CheckInstallments(token.Brand, amount), nil
}

var _ reservation.Submitter = &mockSubmitter{}

type mockSubmitter struct {
	SubmitFunc func(ctx context.Context, req reservation.Request) (reservation.Reservation, error)
}

func (m *mockSubmitter) Submit(ctx context.Context, req reservation.Request) (reservation.Reservation, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return reservation.Reservation{
		ID:                "res-1",
		TransactionID:     "tx-1",
		Status:            "confirmed",
		PurchaseReference: req.PurchaseReference,
		Tickets:           []reservation.Ticket{{ID: "t-1"}, {ID: "t-2"}},
	}, nil
}

type mockEventSource struct {
	GetEventFunc func(ctx context.Context, id uuid.UUID) (catalog.Event, error)
}

func (m *mockEventSource) GetEvent(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
	return m.GetEventFunc(ctx, id)
}
