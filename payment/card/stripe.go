package card

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v85"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
)

var _ Gateway = &StripeGateway{}

type StripeGateway struct {
	client *stripe.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{client: stripe.NewClient(secretKey)}
}

func (g *StripeGateway) CreatePaymentMethod(ctx context.Context, details payment.CardDetails) (PaymentMethod, error) {
	month, year, err := splitExpiry(details.Expiry)
	if err != nil {
		return PaymentMethod{}, payment.NewInvalidDetailsError("card expiry is invalid", err)
	}

	pm, err := g.client.V1PaymentMethods.Create(ctx, &stripe.PaymentMethodCreateParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCreateCardParams{
			Number:   stripe.String(details.Number),
			ExpMonth: stripe.Int64(month),
			ExpYear:  stripe.Int64(year),
			CVC:      stripe.String(details.CVV),
		},
		BillingDetails: &stripe.PaymentMethodCreateBillingDetailsParams{
			Name: stripe.String(details.HolderName),
		},
	})
	if err != nil {
		return PaymentMethod{}, mapStripeError(err)
	}
	return fromStripePaymentMethod(pm), nil
}

func (g *StripeGateway) RetrievePaymentMethod(ctx context.Context, id string) (PaymentMethod, error) {
	pm, err := g.client.V1PaymentMethods.Retrieve(ctx, id, nil)
	if err != nil {
		return PaymentMethod{}, mapStripeError(err)
	}
	return fromStripePaymentMethod(pm), nil
}

func (g *StripeGateway) ConfirmPaymentIntent(ctx context.Context, charge Charge) (Intent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(charge.Amount),
		Currency:      stripe.String(strings.ToLower(charge.Currency)),
		PaymentMethod: stripe.String(charge.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(charge.Description),
	}
	if charge.Installments > 1 {
		params.PaymentMethodOptions = &stripe.PaymentIntentCreatePaymentMethodOptionsParams{
			Card: &stripe.PaymentIntentCreatePaymentMethodOptionsCardParams{
				Installments: &stripe.PaymentIntentCreatePaymentMethodOptionsCardInstallmentsParams{
					Enabled: stripe.Bool(true),
					Plan: &stripe.PaymentIntentCreatePaymentMethodOptionsCardInstallmentsPlanParams{
						Count:    stripe.Int64(int64(charge.Installments)),
						Interval: stripe.String("month"),
						Type:     stripe.String("fixed_count"),
					},
				},
			},
		}
	}
	params.SetIdempotencyKey(charge.IdempotencyKey)

	pi, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return Intent{}, mapStripeError(err)
	}
	return Intent{ID: pi.ID, Status: IntentStatus(pi.Status)}, nil
}

func fromStripePaymentMethod(pm *stripe.PaymentMethod) PaymentMethod {
	out := PaymentMethod{ID: pm.ID}
	if pm.Card != nil {
		out.Brand = string(pm.Card.Brand)
		out.Last4 = pm.Card.Last4
	}
	return out
}

func splitExpiry(expiry string) (int64, int64, error) {
	m, y, ok := strings.Cut(strings.TrimSpace(expiry), "/")
	if !ok {
		return 0, 0, errors.New("expected MM/YY")
	}
	month, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	year, err := strconv.ParseInt(y, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return month, 2000 + year, nil
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return payment.NewNetworkError("failed to reach card provider", err)
	}

	switch {
	case stripeErr.Type == stripe.ErrorTypeCard:
		return payment.NewDeclinedError(stripeErr.Msg, err)
	case stripeErr.HTTPStatusCode == http.StatusUnauthorized || stripeErr.HTTPStatusCode == http.StatusForbidden:
		return payment.NewConfigurationError("card provider rejected the credentials", err)
	case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
		return payment.NewInvalidDetailsError(stripeErr.Msg, err)
	default:
		return payment.NewNetworkError("card provider request failed", err)
	}
}
