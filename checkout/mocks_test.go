package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/reservation"
)

var _ payment.Provider = &mockProvider{}

type mockProvider struct {
	MethodValue  payment.Method
	PrepareFunc  func(ctx context.Context, amount int64, currency string) (payment.Handle, error)
	TokenizeFunc func(ctx context.Context, handle payment.Handle, details payment.Details) (payment.Token, error)
	SettleFunc   func(ctx context.Context, req payment.SettleRequest) (payment.SettlementResult, error)
}

func (m *mockProvider) Method() payment.Method {
	return m.MethodValue
}

func (m *mockProvider) Prepare(ctx context.Context, amount int64, currency string) (payment.Handle, error) {
	if m.PrepareFunc != nil {
		return m.PrepareFunc(ctx, amount, currency)
	}
	return payment.Handle{Method: m.MethodValue, Amount: amount, Currency: currency, PublishableKey: "pk_test"}, nil
}

func (m *mockProvider) Tokenize(ctx context.Context, handle payment.Handle, details payment.Details) (payment.Token, error) {
	if m.TokenizeFunc != nil {
		return m.TokenizeFunc(ctx, handle, details)
	}
	return payment.Token{Method: m.MethodValue, Value: "tok_test", Brand: "visa", Last4: "4242"}, nil
}

func (m *mockProvider) Settle(ctx context.Context, req payment.SettleRequest) (payment.SettlementResult, error) {
	if m.SettleFunc != nil {
		return m.SettleFunc(ctx, req)
	}
	return payment.SettlementResult{ID: "set_test", Status: payment.SETTLEMENT_SUCCEEDED, Installments: req.Installments}, nil
}

var _ payment.InstallmentChecker = &mockCardProvider{}

type mockCardProvider struct {
	mockProvider
	CheckFunc func(ctx context.Context, token payment.Token, amount int64) (payment.Eligibility, error)
}

func (m *mockCardProvider) CheckInstallmentEligibility(ctx context.Context, token payment.Token, amount int64) (payment.Eligibility, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, token, amount)
	}
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
	return reservation.Reservation{ID: "res-1", TransactionID: "tx-1", Status: "confirmed", PurchaseReference: req.PurchaseReference}, nil
}

type mockEventSource struct {
	GetEventFunc func(ctx context.Context, id uuid.UUID) (catalog.Event, error)
}

func (m *mockEventSource) GetEvent(ctx context.Context, id uuid.UUID) (catalog.Event, error) {
	return m.GetEventFunc(ctx, id)
}

type recordingMetrics struct {
	mu          sync.Mutex
	steps       []string
	calls       []string
	submissions []string
	busy        int
}

func (r *recordingMetrics) StepChanged(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, from+"->"+to)
}

func (r *recordingMetrics) ProviderCall(method, operation, outcome string, took time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, method+"/"+operation+"/"+outcome)
}

func (r *recordingMetrics) Submission(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions = append(r.submissions, outcome)
}

func (r *recordingMetrics) Busy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy++
}
