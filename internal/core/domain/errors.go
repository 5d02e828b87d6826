package domain

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// DomainError is a ledger failure with a stable code.
//
// Codes read LM-<CATEGORY>-<NNNN>. The first three digits of NNNN are the
// HTTP status the failure maps to and the last digit tells apart failures
// sharing a status, so LM-ARG-4001 and LM-ARG-4002 are both 400.
type DomainError struct {
	Code    string
	Message string
	Details string
	Cause   error
}

func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(e.Code)
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	return b.String()
}

func (e *DomainError) Unwrap() error { return e.Cause }

// Is matches any DomainError with the same code, so a detailed copy still
// satisfies errors.Is against the sentinel it was made from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// NewDomainError creates a sentinel error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy carrying details. The receiver is unchanged.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy wrapping cause. The receiver is unchanged.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// Status returns the HTTP status encoded in the code.
func (e *DomainError) Status() int {
	return StatusForCode(e.Code)
}

// Temporary reports whether repeating the same call later may succeed.
func (e *DomainError) Temporary() bool {
	return TemporaryCode(e.Code)
}

// TemporaryCode reports whether failures with this code are transient:
// timeouts, rate limiting and unavailability.
func TemporaryCode(code string) bool {
	switch StatusForCode(code) {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// StatusForCode extracts the HTTP status from an error code. Codes that do
// not follow the LM-<CATEGORY>-<NNNN> layout map to 500.
func StatusForCode(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || len(code)-i-1 != 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[i+1:])
	if err != nil {
		return http.StatusInternalServerError
	}
	status := n / 10
	if status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// AsDomainError returns the first DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// GetErrorCode returns the code of the DomainError in err's chain, or "".
func GetErrorCode(err error) string {
	if de, ok := AsDomainError(err); ok {
		return de.Code
	}
	return ""
}

// Argument errors.
var (
	// ErrInvalidAmount: the amount is not above the configured minimum.
	ErrInvalidAmount = NewDomainError("LM-ARG-4001", "invalid amount")

	// ErrInvalidAccountNumber: a non-positive id at creation, or a transfer
	// from an account to itself.
	ErrInvalidAccountNumber = NewDomainError("LM-ARG-4002", "invalid account number")
)

// Account errors.
var (
	ErrAccountNotFound      = NewDomainError("LM-ACCT-4040", "account not found")
	ErrAccountAlreadyExists = NewDomainError("LM-ACCT-4090", "account already exists")
	ErrLowBalance           = NewDomainError("LM-ACCT-4220", "insufficient balance")
)

// ErrRetriesExhausted: both locks of a transfer could not be taken within
// the retry ceiling.
var ErrRetriesExhausted = NewDomainError("LM-LOCK-5031", "lock retries exhausted")

// System errors.
var (
	ErrInternalServer = NewDomainError("LM-SYS-5000", "internal server error")

	// ErrStoreFailure wraps a balance store error. It is never retried.
	ErrStoreFailure = NewDomainError("LM-SYS-5001", "balance store failure")

	// ErrServiceUnavailable: e.g. the store circuit breaker is open.
	ErrServiceUnavailable = NewDomainError("LM-SYS-5030", "service unavailable")

	ErrBadRequest = NewDomainError("LM-SYS-4000", "bad request")

	// ErrCancelled: the caller's context ended while waiting for a lock or
	// for a registry sweep.
	ErrCancelled = NewDomainError("LM-SYS-4080", "operation cancelled")

	ErrForbidden   = NewDomainError("LM-SYS-4030", "forbidden")
	ErrRateLimited = NewDomainError("LM-SYS-4290", "too many requests")
)
