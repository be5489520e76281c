package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuth              = errors.New("provider authentication failed")
	ErrQuota             = errors.New("provider quota exceeded")
	ErrTransient         = errors.New("provider temporarily unavailable")
	ErrMalformedResponse = errors.New("provider returned a malformed response")
)

// ProviderError carries the classified kind of a provider failure together
// with the native error it was derived from.
type ProviderError struct {
	Provider   string
	Kind       error
	StatusCode int
	Err        error
}

func NewProviderError(provider string, kind error, statusCode int, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Kind:       kind,
		StatusCode: statusCode,
		Err:        err,
	}
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindForStatus maps an HTTP status code returned by a provider endpoint to
// one of the classified error kinds.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return ErrQuota
	case status == http.StatusRequestTimeout || status >= http.StatusInternalServerError:
		return ErrTransient
	default:
		return ErrMalformedResponse
	}
}

// Classify wraps an arbitrary adapter error into a *ProviderError. Errors that
// are already classified pass through untouched.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return err
	}

	// Network failures and anything else unrecognised are treated as transient.
	return NewProviderError(provider, ErrTransient, 0, err)
}

// KindOf reports which classified kind err belongs to, or nil.
func KindOf(err error) error {
	for _, kind := range []error{ErrAuth, ErrQuota, ErrTransient, ErrMalformedResponse} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
