package card

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v85"
	"github.com/tonatiuh19/intelivoucher-checkout/clock"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/validation"
)

type mockGateway struct {
	CreatePaymentMethodFunc   func(ctx context.Context, details payment.CardDetails) (PaymentMethod, error)
	RetrievePaymentMethodFunc func(ctx context.Context, id string) (PaymentMethod, error)
	ConfirmPaymentIntentFunc  func(ctx context.Context, charge Charge) (Intent, error)
}

func (m *mockGateway) CreatePaymentMethod(ctx context.Context, details payment.CardDetails) (PaymentMethod, error) {
	return m.CreatePaymentMethodFunc(ctx, details)
}

func (m *mockGateway) RetrievePaymentMethod(ctx context.Context, id string) (PaymentMethod, error) {
	return m.RetrievePaymentMethodFunc(ctx, id)
}

func (m *mockGateway) ConfirmPaymentIntent(ctx context.Context, charge Charge) (Intent, error) {
	return m.ConfirmPaymentIntentFunc(ctx, charge)
}

var testClock = clock.NewManual(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

func reasonOf(t *testing.T, err error) payment.ErrorReason {
	t.Helper()
	var payErr *payment.Error
	require.ErrorAs(t, err, &payErr)
	return payErr.Reason
}

func TestNew(t *testing.T) {
	_, err := New("", &mockGateway{}, testClock)
	assert.Equal(t, payment.REASON_CONFIGURATION_ERROR, reasonOf(t, err))

	_, err = New("pk_test", nil, testClock)
	assert.Equal(t, payment.REASON_CONFIGURATION_ERROR, reasonOf(t, err))

	p, err := Factory(&mockGateway{}, testClock)("pk_test")
	require.NoError(t, err)
	assert.Equal(t, payment.CARD, p.Method())
}

func TestPrepare(t *testing.T) {
	p, err := New("pk_test", &mockGateway{}, testClock)
	require.NoError(t, err)

	h, err := p.Prepare(context.Background(), 121049, "mxn")
	require.NoError(t, err)
	assert.Equal(t, payment.Handle{Method: payment.CARD, Amount: 121049, Currency: "MXN", PublishableKey: "pk_test", PreparedAt: testClock.Now()}, h)

	_, err = p.Prepare(context.Background(), 0, "MXN")
	assert.Equal(t, payment.REASON_INVALID_DETAILS, reasonOf(t, err))
}

func TestTokenize(t *testing.T) {
	t.Run("client token", func(t *testing.T) {
		gw := &mockGateway{RetrievePaymentMethodFunc: func(ctx context.Context, id string) (PaymentMethod, error) {
			assert.Equal(t, "pm_client", id)
			return PaymentMethod{ID: id, Brand: "Visa", Last4: "4242"}, nil
		}}
		p, _ := New("pk_test", gw, testClock)

		tok, err := p.Tokenize(context.Background(), payment.Handle{}, payment.Details{ClientToken: "pm_client"})

		require.NoError(t, err)
		assert.Equal(t, payment.Token{Method: payment.CARD, Value: "pm_client", Brand: "visa", Last4: "4242"}, tok)
	})

	t.Run("raw details are validated before the gateway", func(t *testing.T) {
		called := false
		gw := &mockGateway{CreatePaymentMethodFunc: func(ctx context.Context, details payment.CardDetails) (PaymentMethod, error) {
			called = true
			return PaymentMethod{}, nil
		}}
		p, _ := New("pk_test", gw, testClock)

		_, err := p.Tokenize(context.Background(), payment.Handle{}, payment.Details{Card: &payment.CardDetails{Number: "4242424242424241", Expiry: "12/30", CVV: "123", HolderName: "Ana López"}})

		assert.Equal(t, payment.REASON_INVALID_DETAILS, reasonOf(t, err))
		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, []string{"card.number"}, errs.Fields())
		assert.False(t, called)
	})

	t.Run("raw details", func(t *testing.T) {
		gw := &mockGateway{CreatePaymentMethodFunc: func(ctx context.Context, details payment.CardDetails) (PaymentMethod, error) {
			assert.Equal(t, "4242424242424242", details.Number)
			return PaymentMethod{ID: "pm_new", Brand: "visa", Last4: "4242"}, nil
		}}
		p, _ := New("pk_test", gw, testClock)

		tok, err := p.Tokenize(context.Background(), payment.Handle{}, payment.Details{Card: &payment.CardDetails{Number: "4242 4242 4242 4242", Expiry: "12/30", CVV: "123", HolderName: "Ana López"}})

		require.NoError(t, err)
		assert.Equal(t, "pm_new", tok.Value)
	})

	t.Run("no details", func(t *testing.T) {
		p, _ := New("pk_test", &mockGateway{}, testClock)

		_, err := p.Tokenize(context.Background(), payment.Handle{}, payment.Details{})

		assert.Equal(t, payment.REASON_INVALID_DETAILS, reasonOf(t, err))
	})

	t.Run("gateway error passes through", func(t *testing.T) {
		gw := &mockGateway{RetrievePaymentMethodFunc: func(ctx context.Context, id string) (PaymentMethod, error) {
			return PaymentMethod{}, payment.NewConfigurationError("bad key", nil)
		}}
		p, _ := New("pk_test", gw, testClock)

		_, err := p.Tokenize(context.Background(), payment.Handle{}, payment.Details{ClientToken: "pm_x"})

		assert.Equal(t, payment.REASON_CONFIGURATION_ERROR, reasonOf(t, err))
	})
}

func TestCheckInstallmentEligibility(t *testing.T) {
	p, _ := New("pk_test", &mockGateway{}, testClock)
	tok := payment.Token{Method: payment.CARD, Value: "pm_1", Brand: "visa"}

	e, err := p.CheckInstallmentEligibility(context.Background(), tok, 20000)
	require.NoError(t, err)
	assert.False(t, e.Eligible)

	e, err = p.CheckInstallmentEligibility(context.Background(), tok, 30000)
	require.NoError(t, err)
	assert.Equal(t, payment.Eligibility{Eligible: true, MaxInstallments: 3, InstallmentAmount: 10000}, e)

	_, err = p.CheckInstallmentEligibility(context.Background(), payment.Token{}, 30000)
	assert.Equal(t, payment.REASON_INVALID_DETAILS, reasonOf(t, err))
}

func TestSettle(t *testing.T) {
	req := payment.SettleRequest{
		SessionID:    "sess-1",
		Token:        payment.Token{Method: payment.CARD, Value: "pm_1", Brand: "visa"},
		Amount:       121049,
		Currency:     "MXN",
		Installments: 3,
		Reference:    "INV-20260315-100000-0042",
	}

	t.Run("succeeded with installments", func(t *testing.T) {
		gw := &mockGateway{ConfirmPaymentIntentFunc: func(ctx context.Context, charge Charge) (Intent, error) {
			assert.Equal(t, Charge{
				PaymentMethodID: "pm_1",
				Amount:          121049,
				Currency:        "MXN",
				Installments:    3,
				Description:     "INV-20260315-100000-0042",
				IdempotencyKey:  "sess-1:pm_1",
			}, charge)
			return Intent{ID: "pi_1", Status: INTENT_SUCCEEDED}, nil
		}}
		p, _ := New("pk_test", gw, testClock)

		res, err := p.Settle(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, payment.SettlementResult{ID: "pi_1", Status: payment.SETTLEMENT_SUCCEEDED, Installments: 3}, res)
	})

	t.Run("installments not allowed", func(t *testing.T) {
		p, _ := New("pk_test", &mockGateway{}, testClock)
		r := req
		r.Amount = 20000

		_, err := p.Settle(context.Background(), r)

		assert.Equal(t, payment.REASON_INVALID_DETAILS, reasonOf(t, err))
	})

	statuses := map[IntentStatus]payment.ErrorReason{
		INTENT_CANCELED:                payment.REASON_USER_CANCELLED,
		INTENT_PROCESSING:              payment.REASON_NETWORK_ERROR,
		INTENT_REQUIRES_ACTION:         payment.REASON_DECLINED,
		INTENT_REQUIRES_PAYMENT_METHOD: payment.REASON_DECLINED,
	}
	for status, reason := range statuses {
		t.Run(string(status), func(t *testing.T) {
			gw := &mockGateway{ConfirmPaymentIntentFunc: func(ctx context.Context, charge Charge) (Intent, error) {
				return Intent{ID: "pi_1", Status: status}, nil
			}}
			p, _ := New("pk_test", gw, testClock)

			_, err := p.Settle(context.Background(), req)

			assert.Equal(t, reason, reasonOf(t, err))
		})
	}
}

func TestMapStripeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want payment.ErrorReason
	}{
		{"card error", &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "Your card was declined."}, payment.REASON_DECLINED},
		{"bad key", &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusUnauthorized}, payment.REASON_CONFIGURATION_ERROR},
		{"invalid request", &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusBadRequest}, payment.REASON_INVALID_DETAILS},
		{"api error", &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusInternalServerError}, payment.REASON_NETWORK_ERROR},
		{"transport", errors.New("connection reset"), payment.REASON_NETWORK_ERROR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reasonOf(t, mapStripeError(tt.err)))
		})
	}
}

func TestSplitExpiry(t *testing.T) {
	m, y, err := splitExpiry("07/29")
	require.NoError(t, err)
	assert.Equal(t, int64(7), m)
	assert.Equal(t, int64(2029), y)

	_, _, err = splitExpiry("0729")
	assert.Error(t, err)
}
