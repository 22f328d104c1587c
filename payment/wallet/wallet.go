package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/sony/gobreaker/v2"
	"github.com/tonatiuh19/intelivoucher-checkout/clock"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	SandboxURL = "https://api-m.sandbox.paypal.com"
	LiveURL    = "https://api-m.paypal.com"
)

var _ payment.Provider = &Provider{}

// Provider settles through PayPal Orders v2. Tokenize creates the hosted order,
// Settle captures it after the payer approved.
type Provider struct {
	clientID   string
	secret     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*apiResponse]
	clock      clock.Clock
	logger     *slog.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type Option func(*Provider)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

func New(clientID string, secret string, clk clock.Clock, logger *slog.Logger, opts ...Option) (*Provider, error) {
	if clientID == "" {
		return nil, payment.NewConfigurationError("wallet client id is missing", nil)
	}
	if secret == "" {
		return nil, payment.NewConfigurationError("wallet client secret is missing", nil)
	}

	p := &Provider{
		clientID:   clientID,
		secret:     secret,
		baseURL:    SandboxURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		clock:      clk,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.breaker = gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
		Name:        "wallet-provider",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn("circuit breaker state changed", slog.String("name", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	return p, nil
}

// Factory binds the secret and environment so the registry only supplies the client id.
func Factory(secret string, clk clock.Clock, logger *slog.Logger, opts ...Option) payment.Factory {
	return func(clientID string) (payment.Provider, error) {
		return New(clientID, secret, clk, logger, opts...)
	}
}

func (p *Provider) Method() payment.Method {
	return payment.WALLET
}

func (p *Provider) Prepare(ctx context.Context, amount int64, currency string) (payment.Handle, error) {
	if amount <= 0 {
		return payment.Handle{}, payment.NewInvalidDetailsError(fmt.Sprintf("amount %d must be positive", amount), nil)
	}
	if money.GetCurrency(strings.ToUpper(currency)) == nil {
		return payment.Handle{}, payment.NewInvalidDetailsError(fmt.Sprintf("unknown currency %q", currency), nil)
	}
	return payment.Handle{
		Method:         payment.WALLET,
		Amount:         amount,
		Currency:       strings.ToUpper(currency),
		PublishableKey: p.clientID,
		PreparedAt:     p.clock.Now(),
	}, nil
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string       `json:"reference_id,omitempty"`
	Amount      *orderAmount `json:"amount,omitempty"`
	Payments    *payments    `json:"payments,omitempty"`
}

type payments struct {
	Captures []capture `json:"captures"`
}

type capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
	Links         []link         `json:"links"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

// Tokenize creates the hosted order the payer approves. An order id produced by the
// client SDK is accepted as is.
func (p *Provider) Tokenize(ctx context.Context, handle payment.Handle, details payment.Details) (payment.Token, error) {
	if details.ClientToken != "" {
		return payment.Token{Method: payment.WALLET, Value: details.ClientToken}, nil
	}

	value, err := MajorUnits(handle.Amount, handle.Currency)
	if err != nil {
		return payment.Token{}, payment.NewInvalidDetailsError("order amount is invalid", err)
	}

	var o order
	err = p.call(ctx, http.MethodPost, "/v2/checkout/orders", "", createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: details.Reference,
			Amount:      &orderAmount{CurrencyCode: handle.Currency, Value: value},
		}},
		ApplicationContext: applicationContext{ReturnURL: details.ReturnURL, CancelURL: details.CancelURL},
	}, &o)
	if err != nil {
		return payment.Token{}, err
	}

	tok := payment.Token{Method: payment.WALLET, Value: o.ID}
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			tok.ApprovalURL = l.Href
		}
	}
	return tok, nil
}

func (p *Provider) Settle(ctx context.Context, req payment.SettleRequest) (payment.SettlementResult, error) {
	if req.Token.Value == "" {
		return payment.SettlementResult{}, payment.NewInvalidDetailsError("wallet order id is missing", nil)
	}

	var o order
	err := p.call(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(req.Token.Value)+"/capture", req.SessionID+":"+req.Token.Value, struct{}{}, &o)
	if err != nil {
		return payment.SettlementResult{}, err
	}

	result := payment.SettlementResult{ID: o.ID, Installments: 1}
	if len(o.PurchaseUnits) > 0 && o.PurchaseUnits[0].Payments != nil && len(o.PurchaseUnits[0].Payments.Captures) > 0 {
		result.ID = o.PurchaseUnits[0].Payments.Captures[0].ID
	}

	switch o.Status {
	case "COMPLETED":
		result.Status = payment.SETTLEMENT_SUCCEEDED
		return result, nil
	case "VOIDED":
		result.Status = payment.SETTLEMENT_CANCELLED
		return result, payment.NewUserCancelledError("wallet order was voided")
	case "PAYER_ACTION_REQUIRED", "CREATED", "SAVED":
		result.Status = payment.SETTLEMENT_CANCELLED
		return result, payment.NewUserCancelledError("wallet order was not approved by the payer")
	default:
		result.Status = payment.SETTLEMENT_FAILED
		return result, payment.NewDeclinedError(fmt.Sprintf("wallet order ended in status %q", o.Status), nil)
	}
}

// MajorUnits renders minor units the way the Orders API expects, e.g. 121049 MXN -> "1210.49".
func MajorUnits(amount int64, currency string) (string, error) {
	c := money.GetCurrency(strings.ToUpper(currency))
	if c == nil {
		return "", fmt.Errorf("unknown currency %q", currency)
	}
	if amount < 0 {
		return "", fmt.Errorf("amount %d is negative", amount)
	}
	if c.Fraction == 0 {
		return fmt.Sprintf("%d", amount), nil
	}
	pow := int64(1)
	for range c.Fraction {
		pow *= 10
	}
	return fmt.Sprintf("%d.%0*d", amount/pow, c.Fraction, amount%pow), nil
}

type apiResponse struct {
	status int
	body   []byte
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

func (e apiError) hasIssue(issues ...string) bool {
	for _, d := range e.Details {
		for _, i := range issues {
			if d.Issue == i {
				return true
			}
		}
	}
	return false
}

func (p *Provider) call(ctx context.Context, method, path, requestID string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return payment.NewInvalidDetailsError("failed to encode wallet request", err)
	}

	resp, err := p.breaker.Execute(func() (*apiResponse, error) {
		token, err := p.token(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		if requestID != "" {
			req.Header.Set("PayPal-Request-Id", requestID)
		}
		res, err := p.do(req)
		if err != nil {
			return nil, err
		}
		if res.status >= 500 {
			return nil, payment.NewNetworkError(fmt.Sprintf("wallet provider returned %d", res.status), nil)
		}
		return res, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return payment.NewNetworkError("wallet provider is temporarily unavailable", err)
	}
	if err != nil {
		return err
	}

	if resp.status >= 400 {
		return p.translate(resp)
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return payment.NewNetworkError("failed to decode wallet response", err)
	}
	return nil
}

func (p *Provider) translate(resp *apiResponse) error {
	var e apiError
	_ = json.Unmarshal(resp.body, &e)

	switch {
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		p.resetToken()
		return payment.NewConfigurationError("wallet provider rejected the credentials", errors.New(e.Message))
	case e.hasIssue("ORDER_NOT_APPROVED", "PAYER_ACTION_REQUIRED"):
		return payment.NewUserCancelledError("wallet order was not approved by the payer")
	case e.hasIssue("INSTRUMENT_DECLINED", "PAYER_CANNOT_PAY", "TRANSACTION_REFUSED"):
		return payment.NewDeclinedError("wallet payment was declined", errors.New(e.Message))
	default:
		return payment.NewInvalidDetailsError(fmt.Sprintf("wallet request rejected with %d %s", resp.status, e.Name), errors.New(e.Message))
	}
}

func (p *Provider) do(req *http.Request) (*apiResponse, error) {
	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, payment.NewNetworkError("failed to reach wallet provider", err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, payment.NewNetworkError("failed to read wallet response", err)
	}
	return &apiResponse{status: res.StatusCode, body: b}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached client-credentials access token, refreshing a minute early.
func (p *Provider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && p.clock.Now().Before(p.expiresAt) {
		return p.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", payment.NewNetworkError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.clientID, p.secret)

	res, err := p.do(req)
	if err != nil {
		return "", err
	}
	if res.status == http.StatusUnauthorized || res.status == http.StatusForbidden {
		return "", payment.NewConfigurationError("wallet provider rejected the client credentials", nil)
	}
	if res.status >= 400 {
		return "", payment.NewNetworkError(fmt.Sprintf("wallet token request returned %d", res.status), nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(res.body, &tr); err != nil || tr.AccessToken == "" {
		return "", payment.NewNetworkError("failed to decode wallet token", err)
	}

	p.accessToken = tr.AccessToken
	p.expiresAt = p.clock.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return p.accessToken, nil
}

func (p *Provider) resetToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessToken = ""
}
