package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/tonatiuh19/intelivoucher-checkout/api"
)

type Secrets struct {
	StripeSecretKey    string
	PayPalClientSecret string
	ReservationAPIKey  string
}

type parameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// loadSecrets reads provider secrets from the environment locally and from SSM
// Parameter Store in production. An empty parameter name leaves the secret unset.
func loadSecrets(ctx context.Context, cfg aws.Config, env api.Environment, settings Settings) (Secrets, error) {
	if env == api.LOCAL {
		return Secrets{
			StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
			PayPalClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
			ReservationAPIKey:  os.Getenv("RESERVATION_API_KEY"),
		}, nil
	}

	client := ssm.NewFromConfig(cfg)

	var s Secrets
	for _, p := range []struct {
		name string
		dst  *string
	}{
		{settings.StripeSecretParam, &s.StripeSecretKey},
		{settings.PayPalSecretParam, &s.PayPalClientSecret},
		{settings.ReservationKeyParam, &s.ReservationAPIKey},
	} {
		if p.name == "" {
			continue
		}
		v, err := getSecureParameter(ctx, client, p.name)
		if err != nil {
			return Secrets{}, err
		}
		*p.dst = v
	}
	return s, nil
}

func getSecureParameter(ctx context.Context, client parameterGetter, name string) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}
