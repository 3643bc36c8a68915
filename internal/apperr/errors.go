package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation        = errors.New("invalid request")
	ErrNotFound          = errors.New("booking not found")
	ErrAuthentication    = errors.New("payment provider authentication failed")
	ErrProviderResponse  = errors.New("unexpected payment provider response")
	ErrDelivery          = errors.New("notification delivery failed")
	ErrStore             = errors.New("booking store failure")
	ErrUnavailable       = errors.New("inventory provider unavailable")
	ErrSignature         = errors.New("webhook signature verification failed")
	ErrInvalidTransition = errors.New("booking status transition not allowed")
)

// HTTPStatus maps an error from any layer to the status code the API returns for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSignature):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client. Validation errors keep their
// detail; upstream failures collapse to the sentinel text so provider bodies never leak.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrSignature):
		return ErrSignature.Error()
	case errors.Is(err, ErrInvalidTransition):
		return ErrInvalidTransition.Error()
	case errors.Is(err, ErrUnavailable):
		return ErrUnavailable.Error()
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrProviderResponse):
		return "Payment provider error"
	case errors.Is(err, ErrDelivery):
		return "Failed to deliver notification"
	default:
		return "Internal server error"
	}
}
