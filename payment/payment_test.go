package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInstallments(t *testing.T) {
	t.Run("visa below threshold is not eligible", func(t *testing.T) {
		e := CheckInstallments("visa", 20000)
		assert.False(t, e.Eligible)
		assert.Equal(t, 1, e.MaxInstallments)
		assert.False(t, e.Allows(2))
		assert.True(t, e.Allows(1))
	})

	t.Run("visa at threshold is eligible for three", func(t *testing.T) {
		e := CheckInstallments("visa", 30000)
		assert.True(t, e.Eligible)
		assert.Equal(t, 3, e.MaxInstallments)
		assert.Equal(t, int64(10000), e.InstallmentAmount)
		assert.True(t, e.Allows(3))
		assert.False(t, e.Allows(4))
	})

	t.Run("brand is case insensitive", func(t *testing.T) {
		assert.True(t, CheckInstallments("MasterCard", 50000).Eligible)
		assert.True(t, CheckInstallments("AMEX", 50000).Eligible)
	})

	t.Run("other brands are not eligible", func(t *testing.T) {
		assert.False(t, CheckInstallments("discover", 500000).Eligible)
		assert.False(t, CheckInstallments("", 500000).Eligible)
	})

	t.Run("every installment stays above the minimum", func(t *testing.T) {
		for _, amount := range []int64{30000, 30001, 45000, 121049, 999999} {
			e := CheckInstallments("visa", amount)
			require.True(t, e.Eligible)
			assert.GreaterOrEqual(t, e.InstallmentAmount, MinInstallmentAmount)
			assert.LessOrEqual(t, e.MaxInstallments, MaxInstallments)
		}
	})
}

func TestBrandFromNumber(t *testing.T) {
	cases := map[string]string{
		"4242424242424242": "visa",
		"5555555555554444": "mastercard",
		"2223003122003222": "mastercard",
		"378282246310005":  "amex",
		"6011111111111117": "",
		"4":                "",
	}
	for pan, brand := range cases {
		assert.Equal(t, brand, BrandFromNumber(pan), pan)
	}
	assert.Equal(t, "4242", Last4("4242424242424242"))
}

func TestParseMethod(t *testing.T) {
	m, ok := ParseMethod("wallet")
	assert.True(t, ok)
	assert.Equal(t, WALLET, m)

	_, ok = ParseMethod("cash")
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	factories := map[Method]Factory{
		CARD: func(key string) (Provider, error) {
			return &mockProvider{MethodValue: CARD}, nil
		},
		WALLET: func(key string) (Provider, error) {
			return &mockProvider{MethodValue: WALLET}, nil
		},
	}

	t.Run("missing key makes method unavailable", func(t *testing.T) {
		r, err := NewRegistry([]Key{{Title: "card", KeyString: "pk_live", KeyTest: "pk_test"}}, true, factories)
		require.NoError(t, err)

		assert.Equal(t, []Method{CARD}, r.Available())

		_, err = r.Provider(WALLET)
		var paymentErr *Error
		require.ErrorAs(t, err, &paymentErr)
		assert.Equal(t, REASON_PROVIDER_UNAVAILABLE, paymentErr.Reason)
	})

	t.Run("test mode uses the test key", func(t *testing.T) {
		var gotKey string
		r, err := NewRegistry([]Key{{Title: "card", KeyString: "pk_live", KeyTest: "pk_test"}}, false, map[Method]Factory{
			CARD: func(key string) (Provider, error) {
				gotKey = key
				return &mockProvider{MethodValue: CARD}, nil
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "pk_test", gotKey)
		assert.Equal(t, []Method{CARD}, r.Available())
	})

	t.Run("empty key for the mode is unavailable", func(t *testing.T) {
		r, err := NewRegistry([]Key{{Title: "wallet", KeyString: "client_live"}}, false, factories)
		require.NoError(t, err)
		assert.Empty(t, r.Available())
	})

	t.Run("disable hides the method", func(t *testing.T) {
		r, err := NewRegistry([]Key{{Title: "card", KeyString: "a"}, {Title: "wallet", KeyString: "b"}}, true, factories)
		require.NoError(t, err)
		r.Disable(CARD)

		assert.Equal(t, []Method{WALLET}, r.Available())
		_, err = r.Provider(CARD)
		assert.Error(t, err)
	})

	t.Run("factory failure is returned", func(t *testing.T) {
		_, err := NewRegistry([]Key{{Title: "card", KeyString: "a"}}, true, map[Method]Factory{
			CARD: func(key string) (Provider, error) { return nil, errors.New("bad key") },
		})
		assert.Error(t, err)
	})
}

func TestGuardedSettle(t *testing.T) {
	t.Run("second concurrent settle for a session is rejected", func(t *testing.T) {
		release := make(chan struct{})
		entered := make(chan struct{})
		var calls atomic.Int32

		p := Guarded(&mockProvider{
			MethodValue: CARD,
			SettleFunc: func(ctx context.Context, req SettleRequest) (SettlementResult, error) {
				calls.Add(1)
				close(entered)
				<-release
				return SettlementResult{ID: "pi_1", Status: SETTLEMENT_SUCCEEDED}, nil
			},
		})

		var wg sync.WaitGroup
		var firstErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, firstErr = p.Settle(context.Background(), SettleRequest{SessionID: "s1"})
		}()
		<-entered

		_, err := p.Settle(context.Background(), SettleRequest{SessionID: "s1"})
		var paymentErr *Error
		require.ErrorAs(t, err, &paymentErr)
		assert.Equal(t, REASON_SETTLE_IN_PROGRESS, paymentErr.Reason)

		close(release)
		wg.Wait()
		assert.NoError(t, firstErr)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("sequential settles both reach the provider", func(t *testing.T) {
		var calls atomic.Int32
		p := Guarded(&mockProvider{
			SettleFunc: func(ctx context.Context, req SettleRequest) (SettlementResult, error) {
				calls.Add(1)
				return SettlementResult{Status: SETTLEMENT_SUCCEEDED}, nil
			},
		})

		_, err := p.Settle(context.Background(), SettleRequest{SessionID: "s1"})
		require.NoError(t, err)
		_, err = p.Settle(context.Background(), SettleRequest{SessionID: "s1"})
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("guarding twice does not double wrap", func(t *testing.T) {
		inner := &mockProvider{}
		g := Guarded(inner)
		assert.Same(t, g, Guarded(g))
	})
}

func TestAsInstallmentChecker(t *testing.T) {
	card := &mockCardProvider{
		mockProvider: mockProvider{MethodValue: CARD},
		CheckFunc: func(ctx context.Context, token Token, amount int64) (Eligibility, error) {
			return CheckInstallments(token.Brand, amount), nil
		},
	}

	c, ok := AsInstallmentChecker(Guarded(card))
	require.True(t, ok)
	e, err := c.CheckInstallmentEligibility(context.Background(), Token{Brand: "visa"}, 30000)
	require.NoError(t, err)
	assert.True(t, e.Eligible)

	_, ok = AsInstallmentChecker(Guarded(&mockProvider{MethodValue: WALLET}))
	assert.False(t, ok)
}

func TestErrorRetryable(t *testing.T) {
	assert.True(t, NewDeclinedError("no", nil).Retryable())
	assert.True(t, NewNetworkError("no", nil).Retryable())
	assert.True(t, NewUserCancelledError("no").Retryable())
	assert.False(t, NewConfigurationError("no", nil).Retryable())
	assert.False(t, NewProviderUnavailableError(CARD).Retryable())
}
