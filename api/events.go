package api

import (
	"net/http"
)

// GetEventPaymentMethods lists the methods a checkout for the event can use. A
// method without a configured key never appears.
func (a *API) GetEventPaymentMethods(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathID(w, r); !ok {
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, PaymentMethodsResponse{
		Methods: methodsToApi(a.checkouts.PaymentMethods()),
	})
}
