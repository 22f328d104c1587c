package payment

import (
	"context"
	"time"
)

type Method string

const (
	CARD   Method = "card"
	WALLET Method = "wallet"
)

var Methods = []Method{CARD, WALLET}

func ParseMethod(s string) (Method, bool) {
	for _, m := range Methods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Provider is the uniform contract over the card-network and wallet providers.
type Provider interface {
	Method() Method
	Prepare(ctx context.Context, amount int64, currency string) (Handle, error)
	Tokenize(ctx context.Context, handle Handle, details Details) (Token, error)
	Settle(ctx context.Context, req SettleRequest) (SettlementResult, error)
}

// InstallmentChecker is implemented by providers that can split a charge.
type InstallmentChecker interface {
	CheckInstallmentEligibility(ctx context.Context, token Token, amount int64) (Eligibility, error)
}

// Handle is what the client side needs to bootstrap the provider SDK.
type Handle struct {
	Method         Method
	Amount         int64
	Currency       string
	PublishableKey string
	PreparedAt     time.Time
}

type Details struct {
	// ClientToken is the payment method id produced by the provider SDK on the client.
	ClientToken string
	// Card is only set on the legacy path where raw details reach the server.
	Card      *CardDetails
	Reference string
	ReturnURL string
	CancelURL string
}

type CardDetails struct {
	Number     string
	Expiry     string
	CVV        string
	HolderName string
}

// Token is an opaque provider reference. It never carries raw card data.
type Token struct {
	Method      Method
	Value       string
	Brand       string
	Last4       string
	ApprovalURL string
}

type SettleRequest struct {
	SessionID    string
	Token        Token
	Amount       int64
	Currency     string
	Installments int
	Reference    string
}

type SettlementStatus string

const (
	SETTLEMENT_SUCCEEDED SettlementStatus = "succeeded"
	SETTLEMENT_FAILED    SettlementStatus = "failed"
	SETTLEMENT_CANCELLED SettlementStatus = "cancelled"
)

type SettlementResult struct {
	ID           string
	Status       SettlementStatus
	Installments int
}

// AsInstallmentChecker looks through provider wrappers for the installment capability.
func AsInstallmentChecker(p Provider) (InstallmentChecker, bool) {
	for p != nil {
		if c, ok := p.(InstallmentChecker); ok {
			return c, true
		}
		u, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			return nil, false
		}
		p = u.Unwrap()
	}
	return nil, false
}
