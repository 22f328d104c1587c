package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tonatiuh19/intelivoucher-checkout/catalog"
	"github.com/tonatiuh19/intelivoucher-checkout/clock"
	"github.com/tonatiuh19/intelivoucher-checkout/hold"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/pricing"
	"github.com/tonatiuh19/intelivoucher-checkout/reservation"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
	"github.com/tonatiuh19/intelivoucher-checkout/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tonatiuh19/intelivoucher-checkout/checkout"

// PaymentProviders is the set of payment methods usable right now.
type PaymentProviders interface {
	Provider(m payment.Method) (payment.Provider, error)
	Available() []payment.Method
	Disable(m payment.Method)
}

type Metrics interface {
	StepChanged(from, to string)
	ProviderCall(method, operation, outcome string, took time.Duration)
	Submission(outcome string)
	Busy()
}

type ConfirmedFunc func(ctx context.Context, event catalog.Event, req reservation.Request, res reservation.Reservation)

type Deps struct {
	Payments     PaymentProviders
	Reservations reservation.Submitter
	Clock        clock.Clock
	Logger       *slog.Logger
	Metrics      Metrics
	Tracer       trace.Tracer
	// References generates purchase references. Defaults to reservation.RandomPurchaseReference.
	References  func(now time.Time) string
	OnConfirmed ConfirmedFunc
}

type Config struct {
	Fees           pricing.Fees
	Discount       int64
	HoldDuration   time.Duration
	HoldPolicy     hold.Policy
	SupportContact string
}

// Machine sequences one checkout session. All mutations go through it.
// At most one provider or submission call runs at a time; anything issued
// meanwhile fails with REASON_BUSY.
type Machine struct {
	mu   sync.Mutex
	busy bool

	session   *session.Session
	event     catalog.Event
	snapshot  *pricing.Breakdown
	reference string
	outcome   *Outcome

	deps Deps
	cfg  Config
}

// Start opens a new session for the event and wraps it in a machine.
func Start(event catalog.Event, userID string, deps Deps, cfg Config) *Machine {
	deps = withDefaults(deps)
	now := deps.Clock.Now()
	timer := hold.Start(deps.Clock, cfg.HoldDuration, session.SELECTION.String())
	sess := session.New(uuid.New(), event.ID, userID, event.Currency, timer, now)
	return NewMachine(sess, event, deps, cfg)
}

func NewMachine(sess *session.Session, event catalog.Event, deps Deps, cfg Config) *Machine {
	deps = withDefaults(deps)
	if cfg.HoldPolicy == "" {
		cfg.HoldPolicy = hold.ADVISORY
	}
	if sess.Hold == nil {
		sess.Hold = hold.Start(deps.Clock, cfg.HoldDuration, sess.Step.String())
	}
	return &Machine{
		session: sess,
		event:   event,
		deps:    deps,
		cfg:     cfg,
	}
}

func withDefaults(deps Deps) Deps {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}
	if deps.References == nil {
		deps.References = reservation.RandomPurchaseReference
	}
	return deps
}

func (m *Machine) ID() uuid.UUID {
	return m.session.ID
}

func (m *Machine) Step() session.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Step
}

// Price is the live breakdown before PAYMENT and the frozen snapshot from then on.
func (m *Machine) Price() pricing.Breakdown {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.priceLocked()
}

func (m *Machine) priceLocked() pricing.Breakdown {
	if m.snapshot != nil {
		return *m.snapshot
	}
	return pricing.ComputeTotal(pricing.InputFromEvent(m.event, m.session.Selection, m.cfg.Fees, m.cfg.Discount))
}

// Outcome is nil until a settled payment has been submitted.
func (m *Machine) Outcome() *Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcome == nil {
		return nil
	}
	o := *m.outcome
	return &o
}

// guardLocked rejects any mutation while an async operation is pending or once the
// session is complete. m.mu must be held.
func (m *Machine) guardLocked() *Error {
	if m.busy {
		m.deps.Metrics.Busy()
		return NewBusyError()
	}
	if m.session.Step.IsTerminal() {
		return NewSessionCompleteError()
	}
	return nil
}

// Advance merges the data of the current step and moves forward if it validates.
// Merged data is kept even when validation fails.
func (m *Machine) Advance(data StepData) (session.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guardLocked(); err != nil {
		return m.session.Step, err
	}

	current := m.session.Step
	if data == nil {
		return current, NewValidationError(current, validation.Errors{{Field: "step", Message: "no data provided"}})
	}
	if data.step() != current {
		return current, NewStepMismatchError(current, data.step())
	}

	var errs validation.Errors
	switch d := data.(type) {
	case SelectionData:
		m.session.ApplySelection(d.Selection)
		errs = validation.SelectionRules(m.event)(m.session.Selection)
	case CustomerData:
		m.session.ApplyCustomer(d.Customer)
		errs = validation.CustomerRules()(m.session.Customer)
	case AttendeeData:
		m.session.ApplyAttendees(d.Attendees)
		errs = validation.AttendeeRules(m.deps.Clock.Now())(m.session.Attendees)
	}
	if len(errs) > 0 {
		m.deps.Logger.Info("checkout step rejected",
			slog.String("sessionId", m.session.ID.String()),
			slog.String("step", current.String()),
			slog.Any("fields", errs.Fields()),
		)
		return current, NewValidationError(current, errs)
	}

	next, _ := current.Next()
	if next == session.ATTENDEE_INFO && len(m.session.Attendees) != session.ClampQuantity(m.session.Selection.TicketQuantity) {
		m.session.Resize(m.session.Selection.TicketQuantity)
	}
	if next == session.PAYMENT {
		snapshot := m.priceLocked()
		m.snapshot = &snapshot
	}
	m.transitionLocked(next)

	return next, nil
}

// Retreat goes back one step without clearing entered data. Leaving PAYMENT drops
// the price snapshot and any prepared payment so totals follow new edits.
func (m *Machine) Retreat() (session.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guardLocked(); err != nil {
		return m.session.Step, err
	}

	current := m.session.Step
	prev, ok := current.Previous()
	if !ok {
		return current, NewNoPreviousStepError(current)
	}

	if current == session.PAYMENT {
		m.snapshot = nil
		m.session.Payment.Handle = nil
		m.session.Payment.Token = nil
		m.session.Payment.Result = nil
	}
	m.transitionLocked(prev)

	return prev, nil
}

func (m *Machine) transitionLocked(to session.Step) {
	from := m.session.Step
	m.session.Step = to
	m.session.Hold.Bind(to.String())
	m.deps.Metrics.StepChanged(from.String(), to.String())
	m.deps.Logger.Info("checkout step changed",
		slog.String("sessionId", m.session.ID.String()),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// beginPayment claims the busy flag for an async payment operation. The caller
// must call m.end when done.
func (m *Machine) beginPayment() *Error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guardLocked(); err != nil {
		return err
	}
	if m.session.Step != session.PAYMENT {
		return NewStepMismatchError(m.session.Step, session.PAYMENT)
	}
	if m.session.Hold.Blocks(m.cfg.HoldPolicy) {
		return NewHoldExpiredError()
	}
	m.busy = true
	return nil
}

func (m *Machine) end() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
}

func (m *Machine) purchaseReferenceLocked() string {
	if m.reference == "" {
		m.reference = m.deps.References(m.deps.Clock.Now())
	}
	return m.reference
}

type noopMetrics struct{}

func (noopMetrics) StepChanged(string, string)                          {}
func (noopMetrics) ProviderCall(string, string, string, time.Duration) {}
func (noopMetrics) Submission(string)                                   {}
func (noopMetrics) Busy()                                               {}
