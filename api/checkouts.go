package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/tonatiuh19/intelivoucher-checkout/checkout"
	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
)

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		respondError(r.Context(), w, http.StatusBadRequest, InvalidRequest, "Must specify a JSON body in the request")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, InvalidRequest, "Invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, InvalidRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) machine(w http.ResponseWriter, r *http.Request) (*checkout.Machine, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	m, err := a.checkouts.Get(id)
	if err != nil {
		respondCheckoutError(r.Context(), w, err, nil)
		return nil, false
	}
	return m, true
}

func (a *API) respondState(w http.ResponseWriter, r *http.Request, status int, m *checkout.Machine) {
	respondJSON(r.Context(), w, status, stateToApi(m.State()))
}

func (a *API) PostCheckouts(w http.ResponseWriter, r *http.Request) {
	var req StartCheckoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.EventID == uuid.Nil {
		respondError(r.Context(), w, http.StatusBadRequest, InvalidRequest, "eventId is required")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(r.Context(), w, http.StatusBadRequest, InvalidRequest, "userId is required")
		return
	}

	m, err := a.checkouts.Start(r.Context(), req.EventID, req.UserID)
	if err != nil {
		respondCheckoutError(r.Context(), w, err, nil)
		return
	}

	a.respondState(w, r, http.StatusCreated, m)
}

func (a *API) GetCheckout(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	a.respondState(w, r, http.StatusOK, m)
}

func (a *API) DeleteCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !a.checkouts.Discard(id) {
		respondCheckoutError(r.Context(), w, checkout.NewSessionNotFoundError(id.String()), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) advance(w http.ResponseWriter, r *http.Request, m *checkout.Machine, data checkout.StepData) {
	if _, err := m.Advance(data); err != nil {
		respondCheckoutError(r.Context(), w, err, nil)
		return
	}
	a.respondState(w, r, http.StatusOK, m)
}

func (a *API) PostSelection(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	var req Selection
	if !decodeBody(w, r, &req) {
		return
	}
	a.advance(w, r, m, checkout.SelectionData{Selection: selectionToSession(req)})
}

func (a *API) PostCustomer(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	var req Customer
	if !decodeBody(w, r, &req) {
		return
	}
	a.advance(w, r, m, checkout.CustomerData{Customer: customerToSession(req)})
}

func (a *API) PostAttendees(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	var req AttendeesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	attendees, errs := attendeesToSession(req.Attendees)
	if len(errs) > 0 {
		respondCheckoutError(r.Context(), w, checkout.NewValidationError(session.ATTENDEE_INFO, errs), nil)
		return
	}
	a.advance(w, r, m, checkout.AttendeeData{Attendees: attendees})
}

func (a *API) PostRetreat(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	if _, err := m.Retreat(); err != nil {
		respondCheckoutError(r.Context(), w, err, nil)
		return
	}
	a.respondState(w, r, http.StatusOK, m)
}

func (a *API) PostPaymentPrepare(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	var req PreparePaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Installments == 0 {
		req.Installments = 1
	}

	_, err := m.PreparePayment(r.Context(), checkout.PaymentData{
		Method:       payment.Method(req.Method),
		Installments: req.Installments,
	})
	if err != nil {
		respondCheckoutError(r.Context(), w, err, nil)
		return
	}
	a.respondState(w, r, http.StatusOK, m)
}

func (a *API) PostPaymentToken(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	var req TokenizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := m.Tokenize(r.Context(), tokenizeToDetails(req)); err != nil {
		respondCheckoutError(r.Context(), w, err, nil)
		return
	}
	a.respondState(w, r, http.StatusOK, m)
}

func (a *API) PostPaymentInstallments(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}

	eligibility, err := m.CheckInstallments(r.Context())
	if err != nil {
		respondCheckoutError(r.Context(), w, err, nil)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, eligibilityToApi(eligibility, m.Price().Currency))
}

// PostPaymentSettle charges the session and submits the reservation. A charge that
// succeeded but could not be booked is reported with its recovery details.
func (a *API) PostPaymentSettle(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}

	outcome, err := a.checkouts.Pay(r.Context(), m.ID())
	if err != nil {
		respondCheckoutError(r.Context(), w, err, outcome.Failure)
		return
	}
	a.respondState(w, r, http.StatusOK, m)
}
