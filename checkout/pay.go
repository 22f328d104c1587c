package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/reservation"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
	"github.com/tonatiuh19/intelivoucher-checkout/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recovery is what a customer needs when the charge went through but the booking
// was not recorded.
type Recovery struct {
	SupportContact    string
	PurchaseReference string
	SettlementID      string
	Message           string
}

type Outcome struct {
	Request     reservation.Request
	Settlement  payment.SettlementResult
	Reservation *reservation.Reservation
	Failure     *Recovery

	submitErr error
}

func (o Outcome) Succeeded() bool {
	return o.Reservation != nil
}

// PreparePayment picks the payment method and plan and readies its provider for the
// frozen total.
func (m *Machine) PreparePayment(ctx context.Context, data PaymentData) (payment.Handle, error) {
	if err := m.beginPayment(); err != nil {
		return payment.Handle{}, err
	}
	defer m.end()

	ctx, span := m.startSpan(ctx, "checkout.PreparePayment", attribute.String("payment.method", string(data.Method)))
	defer span.End()

	m.mu.Lock()
	if m.session.Payment.Method != data.Method {
		m.session.Payment.Token = nil
		m.session.Payment.Result = nil
	}
	m.session.Payment.Method = data.Method
	m.session.Payment.Installments = data.Installments
	m.session.Payment.Handle = nil
	info := m.session.Payment
	price := m.priceLocked()
	m.mu.Unlock()

	if err := m.validatePayment(info); err != nil {
		return payment.Handle{}, m.fail(span, err)
	}

	provider, err := m.deps.Payments.Provider(info.Method)
	if err != nil {
		return payment.Handle{}, m.fail(span, fromPaymentError(err))
	}

	start := m.deps.Clock.Now()
	handle, err := provider.Prepare(ctx, price.Total, price.Currency)
	m.recordProviderCall(info.Method, "prepare", err, start)
	if err != nil {
		return payment.Handle{}, m.fail(span, m.handleProviderError(info.Method, err))
	}

	m.mu.Lock()
	m.session.Payment.Handle = &handle
	m.mu.Unlock()

	return handle, nil
}

// Tokenize turns the provider-side payment details into an opaque token. For the
// wallet this creates the hosted order the payer approves.
func (m *Machine) Tokenize(ctx context.Context, details payment.Details) (payment.Token, error) {
	if err := m.beginPayment(); err != nil {
		return payment.Token{}, err
	}
	defer m.end()

	m.mu.Lock()
	info := m.session.Payment
	if details.Reference == "" {
		details.Reference = m.purchaseReferenceLocked()
	}
	m.mu.Unlock()

	ctx, span := m.startSpan(ctx, "checkout.Tokenize", attribute.String("payment.method", string(info.Method)))
	defer span.End()

	if info.Handle == nil {
		return payment.Token{}, m.fail(span, NewPaymentNotReadyError("payment method has not been prepared"))
	}

	provider, err := m.deps.Payments.Provider(info.Method)
	if err != nil {
		return payment.Token{}, m.fail(span, fromPaymentError(err))
	}

	start := m.deps.Clock.Now()
	token, err := provider.Tokenize(ctx, *info.Handle, details)
	m.recordProviderCall(info.Method, "tokenize", err, start)
	if err != nil {
		return payment.Token{}, m.fail(span, m.handleProviderError(info.Method, err))
	}

	m.mu.Lock()
	m.session.Payment.Token = &token
	m.session.Payment.Result = nil
	m.mu.Unlock()

	return token, nil
}

// CheckInstallments reports the plans available for the tokenized card. It uses the
// stored token so no provider artifacts are created. An ineligible card resets the
// plan to a single installment.
func (m *Machine) CheckInstallments(ctx context.Context) (payment.Eligibility, error) {
	if err := m.beginPayment(); err != nil {
		return payment.Eligibility{}, err
	}
	defer m.end()

	ctx, span := m.startSpan(ctx, "checkout.CheckInstallments")
	defer span.End()

	m.mu.Lock()
	info := m.session.Payment
	total := m.priceLocked().Total
	m.mu.Unlock()

	if info.Token == nil {
		return payment.Eligibility{}, m.fail(span, NewPaymentNotReadyError("payment details have not been tokenized"))
	}

	eligibility, err := m.eligibility(ctx, info, total)
	if err != nil {
		return payment.Eligibility{}, m.fail(span, err)
	}

	if !eligibility.Allows(info.Installments) {
		m.mu.Lock()
		m.session.Payment.Installments = 1
		m.mu.Unlock()
	}
	return eligibility, nil
}

func (m *Machine) eligibility(ctx context.Context, info session.PaymentInfo, total int64) (payment.Eligibility, *Error) {
	notEligible := payment.Eligibility{Eligible: false, MaxInstallments: 1, InstallmentAmount: total}

	provider, providerErr := m.deps.Payments.Provider(info.Method)
	if providerErr != nil {
		return payment.Eligibility{}, fromPaymentError(providerErr)
	}
	checker, ok := payment.AsInstallmentChecker(provider)
	if !ok {
		return notEligible, nil
	}

	start := m.deps.Clock.Now()
	eligibility, checkErr := checker.CheckInstallmentEligibility(ctx, *info.Token, total)
	m.recordProviderCall(info.Method, "installments", checkErr, start)
	if checkErr != nil {
		return payment.Eligibility{}, m.handleProviderError(info.Method, checkErr)
	}
	return eligibility, nil
}

// Pay settles the frozen total and, on success, moves to CONFIRMATION and submits
// the reservation exactly once. A failed submission after a successful charge is
// returned as SUBMISSION_FAILED together with the recovery details.
func (m *Machine) Pay(ctx context.Context) (Outcome, error) {
	if err := m.beginPayment(); err != nil {
		return Outcome{}, err
	}
	defer m.end()

	m.mu.Lock()
	info := m.session.Payment
	price := m.priceLocked()
	reference := m.purchaseReferenceLocked()
	m.mu.Unlock()

	ctx, span := m.startSpan(ctx, "checkout.Pay",
		attribute.String("payment.method", string(info.Method)),
		attribute.Int64("payment.amount", price.Total),
		attribute.String("purchase.reference", reference),
	)
	defer span.End()

	if info.Token == nil {
		return Outcome{}, m.fail(span, NewPaymentRequiredError("payment details are required before paying"))
	}
	if err := m.validatePayment(info); err != nil {
		return Outcome{}, m.fail(span, err)
	}

	if info.Installments > 1 {
		eligibility, err := m.eligibility(ctx, info, price.Total)
		if err != nil {
			return Outcome{}, m.fail(span, err)
		}
		if !eligibility.Allows(info.Installments) {
			m.mu.Lock()
			m.session.Payment.Installments = 1
			m.mu.Unlock()
			return Outcome{}, m.fail(span, NewValidationError(session.PAYMENT, validation.Errors{{
				Field:   "installments",
				Message: fmt.Sprintf("%d installments are not available for this payment", info.Installments),
			}}))
		}
	}

	// Validated before the charge; a failure here leaves nothing to recover.
	m.mu.Lock()
	draft := m.buildRequestLocked(price, payment.SettlementResult{Installments: info.Installments}, reference)
	m.mu.Unlock()
	if err := draft.Validate(); err != nil {
		return Outcome{}, m.fail(span, newRequestValidationError(err))
	}

	provider, err := m.deps.Payments.Provider(info.Method)
	if err != nil {
		return Outcome{}, m.fail(span, fromPaymentError(err))
	}

	start := m.deps.Clock.Now()
	result, err := provider.Settle(ctx, payment.SettleRequest{
		SessionID:    m.session.ID.String(),
		Token:        *info.Token,
		Amount:       price.Total,
		Currency:     price.Currency,
		Installments: max(info.Installments, 1),
		Reference:    reference,
	})
	if err == nil {
		err = settlementStatusError(result.Status)
	}
	m.recordProviderCall(info.Method, "settle", err, start)
	if err != nil {
		return Outcome{}, m.fail(span, m.handleSettleError(info.Method, result, err))
	}

	m.mu.Lock()
	m.session.Payment.Result = &result
	m.transitionLocked(session.CONFIRMATION)
	req := m.buildRequestLocked(price, result, reference)
	m.mu.Unlock()

	outcome := m.submit(ctx, span, req, result)

	m.mu.Lock()
	m.outcome = &outcome
	m.mu.Unlock()

	if outcome.Failure != nil {
		return outcome, NewSubmissionFailedError(outcome.Failure.Message, outcome.submitErr)
	}
	return outcome, nil
}

// submit sends the reservation once. It never re-attempts the charge or the request.
func (m *Machine) submit(ctx context.Context, span trace.Span, req reservation.Request, result payment.SettlementResult) Outcome {
	logger := m.deps.Logger.With(
		slog.String("sessionId", m.session.ID.String()),
		slog.String("purchaseReference", req.PurchaseReference),
		slog.String("settlementId", result.ID),
	)

	outcome := Outcome{Request: req, Settlement: result}

	res, err := m.deps.Reservations.Submit(ctx, req)
	if err != nil {
		m.deps.Metrics.Submission("failed")
		logger.Error("reservation submission failed after successful payment", slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "reservation submission failed")

		outcome.Failure = &Recovery{
			SupportContact:    m.cfg.SupportContact,
			PurchaseReference: req.PurchaseReference,
			SettlementID:      result.ID,
			Message: fmt.Sprintf("Your payment was received but the booking could not be recorded. Contact %s with reference %s.",
				m.cfg.SupportContact, req.PurchaseReference),
		}
		outcome.submitErr = err
		return outcome
	}

	m.deps.Metrics.Submission("created")
	logger.Info("reservation created", slog.String("reservationId", res.ID))
	outcome.Reservation = &res

	if m.deps.OnConfirmed != nil {
		m.deps.OnConfirmed(ctx, m.event, req, res)
	}
	return outcome
}

// validatePayment reports a known but unusable method as unavailable rather than as a
// field error.
func (m *Machine) validatePayment(info session.PaymentInfo) *Error {
	if _, known := payment.ParseMethod(string(info.Method)); known {
		if _, err := m.deps.Payments.Provider(info.Method); err != nil {
			return fromPaymentError(err)
		}
	}
	if errs := validation.PaymentRules(m.deps.Payments.Available())(info); len(errs) > 0 {
		return NewValidationError(session.PAYMENT, errs)
	}
	return nil
}

// handleProviderError applies the side effects of a provider failure and translates it.
func (m *Machine) handleProviderError(method payment.Method, err error) *Error {
	checkoutErr := fromPaymentError(err)
	if checkoutErr.Reason == REASON_CONFIGURATION_ERROR {
		m.deps.Payments.Disable(method)
		m.mu.Lock()
		m.session.Payment.Handle = nil
		m.session.Payment.Token = nil
		m.mu.Unlock()
		m.deps.Logger.Error("payment method disabled after configuration error",
			slog.String("method", string(method)),
			slog.String("error", err.Error()),
		)
	}
	return checkoutErr
}

// settlementStatusError maps a non-successful status reported without an error
// onto the payment failure taxonomy.
func settlementStatusError(status payment.SettlementStatus) error {
	switch status {
	case payment.SETTLEMENT_SUCCEEDED:
		return nil
	case payment.SETTLEMENT_CANCELLED:
		return payment.NewUserCancelledError("payment was cancelled by the payer")
	default:
		return payment.NewDeclinedError(fmt.Sprintf("settlement ended in status %q", status), nil)
	}
}

// handleSettleError keeps the token after a network error so the same payment can be
// retried, and drops it after a decline or cancellation so new details are captured.
func (m *Machine) handleSettleError(method payment.Method, result payment.SettlementResult, err error) *Error {
	checkoutErr := m.handleProviderError(method, err)

	m.mu.Lock()
	defer m.mu.Unlock()
	switch checkoutErr.Reason {
	case REASON_PAYMENT_DECLINED, REASON_USER_CANCELLED:
		m.session.Payment.Token = nil
		if result.ID != "" {
			m.session.Payment.Result = &result
		}
	}

	m.deps.Logger.Warn("payment settlement failed",
		slog.String("sessionId", m.session.ID.String()),
		slog.String("method", string(method)),
		slog.String("reason", string(checkoutErr.Reason)),
	)
	return checkoutErr
}

func (m *Machine) recordProviderCall(method payment.Method, operation string, err error, start time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var payErr *payment.Error
		if errors.As(err, &payErr) {
			outcome = string(payErr.Reason)
		}
	}
	m.deps.Metrics.ProviderCall(string(method), operation, outcome, m.deps.Clock.Now().Sub(start))
}

func (m *Machine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("checkout.session_id", m.session.ID.String()))
	return m.deps.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (m *Machine) fail(span trace.Span, err *Error) *Error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Reason))
	return err
}
