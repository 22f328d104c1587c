package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tonatiuh19/intelivoucher-checkout/checkout"
	"github.com/tonatiuh19/intelivoucher-checkout/metrics"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
)

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

// Checkouts is the session service the handlers drive.
type Checkouts interface {
	Start(ctx context.Context, eventID uuid.UUID, userID string) (*checkout.Machine, error)
	Get(id uuid.UUID) (*checkout.Machine, error)
	Discard(id uuid.UUID) bool
	Pay(ctx context.Context, id uuid.UUID) (checkout.Outcome, error)
	PaymentMethods() []payment.Method
}

var _ Checkouts = &checkout.Service{}

type API struct {
	checkouts      Checkouts
	logger         *slog.Logger
	env            Environment
	allowedOrigins []string
	serverMetrics  *metrics.ServerMetrics
	gatherer       prometheus.Gatherer
}

type Option func(*API)

// WithMetrics records request metrics and exposes the gatherer on /metrics.
func WithMetrics(m *metrics.ServerMetrics, g prometheus.Gatherer) Option {
	return func(a *API) {
		a.serverMetrics = m
		a.gatherer = g
	}
}

func WithAllowedOrigins(origins ...string) Option {
	return func(a *API) {
		a.allowedOrigins = origins
	}
}

func NewAPI(checkouts Checkouts, logger *slog.Logger, env Environment, opts ...Option) *API {
	a := &API{
		checkouts:      checkouts,
		logger:         logger,
		env:            env,
		allowedOrigins: []string{"https://intelivoucher.com"},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler builds the router. Checkout and event routes are validated against the
// embedded OpenAPI document before they reach a handler.
func (a *API) Handler() http.Handler {
	swagger, err := GetSwagger()
	if err != nil {
		panic(err)
	}

	r := chi.NewRouter()
	r.Use(
		a.requestIdMiddleware(),
		a.loggingMiddleware(),
		a.corsMiddleware(),
		a.metricsMiddleware(),
	)

	r.Get("/health", a.GetHealth)
	if a.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(a.gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(a.openapiValidateMiddleware(swagger))

		r.Get("/events/{id}/payment-methods", a.GetEventPaymentMethods)

		r.Post("/checkouts", a.PostCheckouts)
		r.Route("/checkouts/{id}", func(r chi.Router) {
			r.Get("/", a.GetCheckout)
			r.Delete("/", a.DeleteCheckout)

			r.Post("/selection", a.PostSelection)
			r.Post("/customer", a.PostCustomer)
			r.Post("/attendees", a.PostAttendees)
			r.Post("/retreat", a.PostRetreat)

			r.Post("/payment/prepare", a.PostPaymentPrepare)
			r.Post("/payment/token", a.PostPaymentToken)
			r.Post("/payment/installments", a.PostPaymentInstallments)
			r.Post("/payment/settle", a.PostPaymentSettle)
		})
	})

	return r
}

func (a *API) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
