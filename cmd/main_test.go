package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonatiuh19/intelivoucher-checkout/api"
	"github.com/tonatiuh19/intelivoucher-checkout/hold"
)

type mockParameterGetter struct {
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func (m *mockParameterGetter) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return m.GetParameterFunc(ctx, params, optFns...)
}

func TestGetSecureParameter(t *testing.T) {
	t.Run("decrypts the named parameter", func(t *testing.T) {
		client := &mockParameterGetter{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				assert.Equal(t, "/intelivoucher/stripe-secret-key", aws.ToString(params.Name))
				assert.True(t, aws.ToBool(params.WithDecryption))
				return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String("sk_test_123")}}, nil
			},
		}

		v, err := getSecureParameter(context.Background(), client, "/intelivoucher/stripe-secret-key")
		require.NoError(t, err)
		assert.Equal(t, "sk_test_123", v)
	})

	t.Run("wraps client errors", func(t *testing.T) {
		boom := errors.New("boom")
		client := &mockParameterGetter{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, boom
			},
		}

		_, err := getSecureParameter(context.Background(), client, "missing")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("parameter without value", func(t *testing.T) {
		client := &mockParameterGetter{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return &ssm.GetParameterOutput{}, nil
			},
		}

		_, err := getSecureParameter(context.Background(), client, "empty")
		assert.Error(t, err)
	})
}

func TestGetSettingsFromEnv(t *testing.T) {
	t.Run("parses overrides", func(t *testing.T) {
		t.Setenv("ENV", "PROD")
		t.Setenv("HOLD_POLICY", "hard")
		t.Setenv("HOLD_DURATION", "10m")
		t.Setenv("SERVICE_FEE", "1000")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

		s, err := getSettingsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, api.PROD, s.Env)
		assert.Equal(t, hold.HARD, s.HoldPolicy)
		assert.Equal(t, 10*time.Minute, s.HoldDuration)
		assert.Equal(t, int64(1000), s.ServiceFee)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.AllowedOrigins)
	})

	t.Run("rejects unknown environment", func(t *testing.T) {
		t.Setenv("ENV", "STAGING")

		_, err := getSettingsFromEnv()
		assert.Error(t, err)
	})

	t.Run("rejects bad fee", func(t *testing.T) {
		t.Setenv("ENV", "LOCAL")
		t.Setenv("PROCESSING_FEE", "3.99")

		_, err := getSettingsFromEnv()
		assert.Error(t, err)
	})
}

func TestReadSeedFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("builds the catalog event", func(t *testing.T) {
		path := filepath.Join(dir, "seed.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"event": {
				"id": "4b1c7b1e-3c1e-4c7a-9a55-1d2f3e4a5b6c",
				"name": "Final",
				"venue": "Estadio Azteca",
				"startTime": "2026-11-20T02:00:00Z",
				"zones": [{"id": "vip", "name": "VIP", "price": 59900, "available": true}],
				"transportationOptions": [{"id": "bus", "name": "Bus", "additionalCost": 35000, "available": true}],
				"jerseyAddonAvailable": true,
				"jerseyPrice": 120000
			},
			"paymentKeys": [{"title": "stripe", "key_string": "pk_live", "key_test": "pk_test"}]
		}`), 0o600))

		seed, err := readSeedFile(path)
		require.NoError(t, err)

		e := seed.Event.event()
		assert.Equal(t, 1, e.Version)
		assert.Equal(t, "MXN", e.Currency)
		require.Len(t, e.Zones, 1)
		assert.Equal(t, int64(59900), e.Zones[0].Price.Amount())
		assert.Equal(t, int64(35000), e.TransportationOptions[0].AdditionalCost.Amount())
		assert.Equal(t, int64(120000), e.JerseyPrice.Amount())
		require.Len(t, seed.PaymentKeys, 1)
		assert.Equal(t, "pk_test", seed.PaymentKeys[0].For(false))
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"event": {"id": "4b1c7b1e-3c1e-4c7a-9a55-1d2f3e4a5b6c"}, "extra": 1}`), 0o600))

		_, err := readSeedFile(path)
		assert.Error(t, err)
	})

	t.Run("requires an event id", func(t *testing.T) {
		path := filepath.Join(dir, "noid.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"event": {"name": "x"}}`), 0o600))

		_, err := readSeedFile(path)
		assert.Error(t, err)
	})
}
