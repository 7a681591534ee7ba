package signup

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/flightline-labs/discstash/internal/identity"
)

// User-facing messages. Every terminal error from the signup flow normalizes
// to exactly one of these; internal error detail never reaches the UI layer.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailInUse         = "This email is already registered"
	msgServerError        = "Unable to create account. Please try again later"
	msgProvisioningFailed = "Unable to complete signup. Please try again"
	msgInvalidProfileData = "Invalid profile data"
	msgUnknown            = "An unexpected error occurred. Please try again"
)

var (
	// ErrDuplicateEmail indicates the address is already registered, reported
	// either by the pre-check or by the identity service conflict status.
	ErrDuplicateEmail = errors.New("signup: email already registered")

	// ErrInvalidProfileInput indicates a malformed identity id or email was
	// handed to the provisioner. Never retried.
	ErrInvalidProfileInput = errors.New("signup: invalid profile input")
)

// ValidationError reports a credential constraint violated before any
// network call. Its message is surfaced verbatim to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ProvisioningError reports that profile provisioning exhausted all attempts.
type ProvisioningError struct {
	Attempts int
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("signup: profile provisioning failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// UserMessage maps any error produced by the signup flow to a single
// ready-to-display string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Reason
	}
	if errors.Is(err, ErrDuplicateEmail) {
		return msgEmailInUse
	}
	if errors.Is(err, ErrInvalidProfileInput) {
		return msgInvalidProfileData
	}

	var provisioningErr *ProvisioningError
	if errors.As(err, &provisioningErr) {
		return msgProvisioningFailed
	}

	var serviceErr *identity.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Status {
		case http.StatusBadRequest:
			return msgInvalidCredentials
		case http.StatusUnprocessableEntity:
			return msgEmailInUse
		case http.StatusInternalServerError:
			return msgServerError
		default:
			if serviceErr.Message != "" {
				return serviceErr.Message
			}
			return msgUnknown
		}
	}

	return msgUnknown
}

// HTTPStatus maps a signup flow error to the response status the API returns.
func HTTPStatus(err error) int {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrDuplicateEmail) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidProfileInput) {
		return http.StatusBadRequest
	}
	var provisioningErr *ProvisioningError
	if errors.As(err, &provisioningErr) {
		return http.StatusBadGateway
	}
	var serviceErr *identity.ServiceError
	if errors.As(err, &serviceErr) {
		if serviceErr.Status == http.StatusUnprocessableEntity {
			return http.StatusConflict
		}
		return serviceErr.Status
	}
	return http.StatusInternalServerError
}
