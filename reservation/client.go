package reservation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout = 10 * time.Second

var _ Submitter = &HTTPClient{}

// HTTPClient posts reservations to the reservation service. It never retries.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[Reservation]
	logger     *slog.Logger
}

type ClientOption func(*HTTPClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

func WithAPIKey(key string) ClientOption {
	return func(h *HTTPClient) {
		h.apiKey = key
	}
}

func NewHTTPClient(baseURL string, logger *slog.Logger, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[Reservation](gobreaker.Settings{
		Name:        "reservation-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A rejected request means the service is healthy.
		IsSuccessful: func(err error) bool {
			var resErr *Error
			if errors.As(err, &resErr) {
				return resErr.Reason == REASON_REJECTED || resErr.Reason == REASON_INVALID_REQUEST
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", slog.String("name", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	return c
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *HTTPClient) Submit(ctx context.Context, req Request) (Reservation, error) {
	if err := req.Validate(); err != nil {
		return Reservation{}, NewInvalidRequestError("request failed local validation", err)
	}

	res, err := c.breaker.Execute(func() (Reservation, error) {
		return c.post(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Reservation{}, NewUnavailableError("reservation service is unavailable", err)
	}
	return res, err
}

func (c *HTTPClient) post(ctx context.Context, req Request) (Reservation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Reservation{}, NewInvalidRequestError("failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reservations", bytes.NewReader(body))
	if err != nil {
		return Reservation{}, NewInvalidRequestError("failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.PurchaseReference)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Reservation{}, NewNetworkError("failed to reach reservation service", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reservation{}, NewNetworkError("failed to read reservation response", err)
	}

	if resp.StatusCode >= 500 {
		return Reservation{}, NewNetworkError(fmt.Sprintf("reservation service returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Message == "" {
			errResp.Message = http.StatusText(resp.StatusCode)
		}
		return Reservation{}, NewRejectedError(resp.StatusCode, errResp.Code, errResp.Message)
	}

	var res Reservation
	if err := json.Unmarshal(respBody, &res); err != nil {
		return Reservation{}, NewBadResponseError("failed to decode reservation", err)
	}
	if res.ID == "" {
		return Reservation{}, NewBadResponseError("reservation response has no id", nil)
	}
	return res, nil
}
