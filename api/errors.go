package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tonatiuh19/intelivoucher-checkout/checkout"
	"github.com/tonatiuh19/intelivoucher-checkout/validation"
)

type ErrorCode string

const (
	InvalidRequest ErrorCode = "INVALID_REQUEST"
	InternalError  ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code     ErrorCode               `json:"code"`
	Message  string                  `json:"message"`
	Fields   []validation.FieldError `json:"fields,omitempty"`
	Recovery *RecoveryResponse       `json:"recovery,omitempty"`
}

var reasonStatus = map[checkout.ErrorReason]int{
	checkout.REASON_VALIDATION_FAILED:       http.StatusUnprocessableEntity,
	checkout.REASON_BUSY:                    http.StatusConflict,
	checkout.REASON_STEP_MISMATCH:           http.StatusConflict,
	checkout.REASON_NO_PREVIOUS_STEP:        http.StatusConflict,
	checkout.REASON_SESSION_COMPLETE:        http.StatusConflict,
	checkout.REASON_SESSION_NOT_FOUND:       http.StatusNotFound,
	checkout.REASON_PAYMENT_REQUIRED:        http.StatusPaymentRequired,
	checkout.REASON_PAYMENT_NOT_READY:       http.StatusConflict,
	checkout.REASON_PROVIDER_UNAVAILABLE:    http.StatusServiceUnavailable,
	checkout.REASON_CONFIGURATION_ERROR:     http.StatusServiceUnavailable,
	checkout.REASON_PAYMENT_DECLINED:        http.StatusPaymentRequired,
	checkout.REASON_NETWORK_ERROR:           http.StatusBadGateway,
	checkout.REASON_USER_CANCELLED:          http.StatusConflict,
	checkout.REASON_SUBMISSION_FAILED:       http.StatusBadGateway,
	checkout.REASON_HOLD_EXPIRED:            http.StatusGone,
	checkout.REASON_EVENT_NOT_AVAILABLE:     http.StatusNotFound,
	checkout.REASON_FAILED_TO_LOAD_CHECKOUT: http.StatusInternalServerError,
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		getLoggerFromCtx(ctx).Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, code ErrorCode, message string) {
	respondJSON(ctx, w, status, Error{Code: code, Message: message})
}

// respondCheckoutError maps a checkout failure onto its status code. Failures that
// are not checkout errors are reported as internal errors.
func respondCheckoutError(ctx context.Context, w http.ResponseWriter, err error, recovery *checkout.Recovery) {
	logger := getLoggerFromCtx(ctx)

	var checkoutErr *checkout.Error
	if !errors.As(err, &checkoutErr) {
		logger.Error("unexpected checkout failure", slog.String("error", err.Error()))
		respondError(ctx, w, http.StatusInternalServerError, InternalError, "Internal server error")
		return
	}

	status, ok := reasonStatus[checkoutErr.Reason]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError || checkoutErr.Reason == checkout.REASON_SUBMISSION_FAILED {
		logger.Error("checkout request failed", slog.String("reason", string(checkoutErr.Reason)), slog.String("error", err.Error()))
	}

	resp := Error{
		Code:    ErrorCode(checkoutErr.Reason),
		Message: checkoutErr.Message,
		Fields:  checkoutErr.Fields(),
	}
	if recovery != nil {
		resp.Recovery = recoveryToResponse(*recovery)
	}
	respondJSON(ctx, w, status, resp)
}
