package card

import (
	"context"
	"fmt"
	"strings"

	"github.com/tonatiuh19/intelivoucher-checkout/clock"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/validation"
)

var (
	_ payment.Provider           = &Provider{}
	_ payment.InstallmentChecker = &Provider{}
)

type PaymentMethod struct {
	ID    string
	Brand string
	Last4 string
}

type Charge struct {
	PaymentMethodID string
	Amount          int64
	Currency        string
	Installments    int
	Description     string
	IdempotencyKey  string
}

type IntentStatus string

const (
	INTENT_SUCCEEDED               IntentStatus = "succeeded"
	INTENT_PROCESSING              IntentStatus = "processing"
	INTENT_REQUIRES_ACTION         IntentStatus = "requires_action"
	INTENT_REQUIRES_PAYMENT_METHOD IntentStatus = "requires_payment_method"
	INTENT_CANCELED                IntentStatus = "canceled"
)

type Intent struct {
	ID     string
	Status IntentStatus
}

// Gateway is the slice of the card network API the provider needs. Errors are
// already translated to *payment.Error.
type Gateway interface {
	CreatePaymentMethod(ctx context.Context, details payment.CardDetails) (PaymentMethod, error)
	RetrievePaymentMethod(ctx context.Context, id string) (PaymentMethod, error)
	ConfirmPaymentIntent(ctx context.Context, charge Charge) (Intent, error)
}

type Provider struct {
	publishableKey string
	gateway        Gateway
	clock          clock.Clock
}

func New(publishableKey string, gateway Gateway, clk clock.Clock) (*Provider, error) {
	if publishableKey == "" {
		return nil, payment.NewConfigurationError("card publishable key is missing", nil)
	}
	if gateway == nil {
		return nil, payment.NewConfigurationError("card gateway is not configured", nil)
	}
	return &Provider{
		publishableKey: publishableKey,
		gateway:        gateway,
		clock:          clk,
	}, nil
}

// Factory binds a gateway so the registry only has to supply the publishable key.
func Factory(gateway Gateway, clk clock.Clock) payment.Factory {
	return func(publishableKey string) (payment.Provider, error) {
		return New(publishableKey, gateway, clk)
	}
}

func (p *Provider) Method() payment.Method {
	return payment.CARD
}

func (p *Provider) Prepare(ctx context.Context, amount int64, currency string) (payment.Handle, error) {
	if amount <= 0 {
		return payment.Handle{}, payment.NewInvalidDetailsError(fmt.Sprintf("amount %d must be positive", amount), nil)
	}
	return payment.Handle{
		Method:         payment.CARD,
		Amount:         amount,
		Currency:       strings.ToUpper(currency),
		PublishableKey: p.publishableKey,
		PreparedAt:     p.clock.Now(),
	}, nil
}

// Tokenize prefers the payment method created by the client SDK. Raw card details
// are only accepted on the fallback path and are validated before leaving the process.
func (p *Provider) Tokenize(ctx context.Context, handle payment.Handle, details payment.Details) (payment.Token, error) {
	var (
		pm  PaymentMethod
		err error
	)

	switch {
	case details.ClientToken != "":
		pm, err = p.gateway.RetrievePaymentMethod(ctx, details.ClientToken)
	case details.Card != nil:
		if errs := validation.CardRules(p.clock.Now())(*details.Card); len(errs) > 0 {
			return payment.Token{}, payment.NewInvalidDetailsError("card details are invalid", errs)
		}
		c := *details.Card
		c.Number = validation.NormalizeCardNumber(c.Number)
		pm, err = p.gateway.CreatePaymentMethod(ctx, c)
	default:
		return payment.Token{}, payment.NewInvalidDetailsError("no card details or client token provided", nil)
	}
	if err != nil {
		return payment.Token{}, err
	}

	return payment.Token{
		Method: payment.CARD,
		Value:  pm.ID,
		Brand:  strings.ToLower(pm.Brand),
		Last4:  pm.Last4,
	}, nil
}

// CheckInstallmentEligibility uses the brand already on the token, so checking never
// creates anything on the provider side.
func (p *Provider) CheckInstallmentEligibility(ctx context.Context, token payment.Token, amount int64) (payment.Eligibility, error) {
	if token.Value == "" {
		return payment.Eligibility{}, payment.NewInvalidDetailsError("card must be tokenized before checking installments", nil)
	}
	return payment.CheckInstallments(token.Brand, amount), nil
}

func (p *Provider) Settle(ctx context.Context, req payment.SettleRequest) (payment.SettlementResult, error) {
	if req.Token.Value == "" {
		return payment.SettlementResult{}, payment.NewInvalidDetailsError("card token is missing", nil)
	}
	installments := max(req.Installments, 1)
	if !payment.CheckInstallments(req.Token.Brand, req.Amount).Allows(installments) {
		return payment.SettlementResult{}, payment.NewInvalidDetailsError(fmt.Sprintf("%d installments are not allowed for this card", installments), nil)
	}

	intent, err := p.gateway.ConfirmPaymentIntent(ctx, Charge{
		PaymentMethodID: req.Token.Value,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Installments:    installments,
		Description:     req.Reference,
		IdempotencyKey:  req.SessionID + ":" + req.Token.Value,
	})
	if err != nil {
		return payment.SettlementResult{}, err
	}

	result := payment.SettlementResult{ID: intent.ID, Installments: installments}
	switch intent.Status {
	case INTENT_SUCCEEDED:
		result.Status = payment.SETTLEMENT_SUCCEEDED
		return result, nil
	case INTENT_CANCELED:
		result.Status = payment.SETTLEMENT_CANCELLED
		return result, payment.NewUserCancelledError("card payment was cancelled")
	case INTENT_PROCESSING:
		result.Status = payment.SETTLEMENT_FAILED
		return result, payment.NewNetworkError("card payment is still processing", nil)
	case INTENT_REQUIRES_ACTION:
		result.Status = payment.SETTLEMENT_FAILED
		return result, payment.NewDeclinedError("card requires additional authentication", nil)
	default:
		result.Status = payment.SETTLEMENT_FAILED
		return result, payment.NewDeclinedError(fmt.Sprintf("card payment ended in status %q", intent.Status), nil)
	}
}
