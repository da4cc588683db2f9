package apperr

import (
	"errors"
	"net/http"
)

// Error is a client-visible error with a stable, enumerable code.
// Clients branch on Code, never on Message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// WithMessage returns a copy of e carrying a different human-readable
// message. Code and status are preserved so clients still match.
func (e *Error) WithMessage(message string) *Error {
	return &Error{Code: e.Code, Message: message, Status: e.Status}
}

var (
	// ErrInvalidCredentials covers both unknown user and wrong password;
	// the two are never distinguished in responses.
	ErrInvalidCredentials        = New("invalid_credentials", "invalid credentials", http.StatusUnauthorized)
	ErrUnauthorized              = New("unauthorized", "missing or invalid token", http.StatusUnauthorized)
	ErrForbidden                 = New("forbidden", "insufficient role", http.StatusForbidden)
	ErrRateLimited               = New("rate_limited", "too many requests", http.StatusTooManyRequests)
	ErrSignUpDisabled            = New("sign_up_disabled", "sign up is disabled", http.StatusBadRequest)
	ErrLegacyEndpointDisabled    = New("legacy_endpoint_disabled", "legacy endpoint is disabled", http.StatusBadRequest)
	ErrIdentityDisabled          = New("identity_disabled", "identity backend is disabled", http.StatusBadRequest)
	ErrEmailVerificationRequired = New("email_verification_required", "email verification required", http.StatusForbidden)
	ErrTermsNotAccepted          = New("terms_not_accepted", "terms must be accepted", http.StatusBadRequest)
	ErrValidationFailed          = New("validation_failed", "malformed input", http.StatusBadRequest)
	ErrUserExists                = New("user_already_exists", "user already exists", http.StatusBadRequest)
	ErrInternal                  = New("internal_error", "internal error", http.StatusInternalServerError)
)

// From maps any error to a client-visible *Error. Unknown errors collapse
// to internal_error so implementation details never leak.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal
}
