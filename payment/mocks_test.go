package payment

import "context"

var _ Provider = &mockProvider{}

type mockProvider struct {
	MethodValue  Method
	PrepareFunc  func(ctx context.Context, amount int64, currency string) (Handle, error)
	TokenizeFunc func(ctx context.Context, handle Handle, details Details) (Token, error)
	SettleFunc   func(ctx context.Context, req SettleRequest) (SettlementResult, error)
}

func (m *mockProvider) Method() Method {
	return m.MethodValue
}

func (m *mockProvider) Prepare(ctx context.Context, amount int64, currency string) (Handle, error) {
	if m.PrepareFunc != nil {
		return m.PrepareFunc(ctx, amount, currency)
	}
	return Handle{Method: m.MethodValue, Amount: amount, Currency: currency}, nil
}

func (m *mockProvider) Tokenize(ctx context.Context, handle Handle, details Details) (Token, error) {
	if m.TokenizeFunc != nil {
		return m.TokenizeFunc(ctx, handle, details)
	}
	return Token{Method: m.MethodValue, Value: "tok_test"}, nil
}

func (m *mockProvider) Settle(ctx context.Context, req SettleRequest) (SettlementResult, error) {
	if m.SettleFunc != nil {
		return m.SettleFunc(ctx, req)
	}
	return SettlementResult{ID: "pay_test", Status: SETTLEMENT_SUCCEEDED}, nil
}

type mockCardProvider struct {
	mockProvider
	CheckFunc func(ctx context.Context, token Token, amount int64) (Eligibility, error)
}

func (m *mockCardProvider) CheckInstallmentEligibility(ctx context.Context, token Token, amount int64) (Eligibility, error) {
	return m.CheckFunc(ctx, token, amount)
}
