package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorClass is the category a remote provider failure falls into.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	// ClassQuota means the model's daily allowance is spent.
	ClassQuota
	// ClassRateLimit is a short-term limit; retrying later succeeds.
	ClassRateLimit
	// ClassTransient covers network and server-side failures.
	ClassTransient
)

func (c ErrorClass) String() string {
	switch c {
	case ClassQuota:
		return "quota"
	case ClassRateLimit:
		return "rate_limit"
	case ClassTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Classifier maps a raw provider error to an ErrorClass.
type Classifier func(err error) ErrorClass

// Markers are the substrings a Classifier looks for in the error text.
// Quota markers are checked before rate-limit markers.
type Markers struct {
	Quota     []string
	RateLimit []string
}

// GeminiMarkers match the Gemini API error payloads. A daily quota failure
// carries the RESOURCE_EXHAUSTED status; anything else with HTTP 429 is a
// per-minute limit.
var GeminiMarkers = Markers{
	Quota:     []string{"RESOURCE_EXHAUSTED"},
	RateLimit: []string{"Error 429", "Too Many Requests", "rate limit"},
}

// OpenAIMarkers match the OpenAI error codes for billing quota and rate limits.
var OpenAIMarkers = Markers{
	Quota:     []string{"insufficient_quota"},
	RateLimit: []string{"rate_limit_exceeded", "Rate limit"},
}

// NewClassifier builds a Classifier from a set of markers. Errors that match no
// marker are classified by their HTTP status or network type.
func NewClassifier(m Markers) Classifier {
	return func(err error) ErrorClass {
		if err == nil {
			return ClassUnknown
		}

		text, code := describe(err)
		for _, marker := range m.Quota {
			if strings.Contains(text, marker) {
				return ClassQuota
			}
		}
		for _, marker := range m.RateLimit {
			if strings.Contains(text, marker) {
				return ClassRateLimit
			}
		}

		switch {
		case code == 429:
			return ClassRateLimit
		case code >= 500:
			return ClassTransient
		case errors.Is(err, context.DeadlineExceeded):
			return ClassTransient
		}

		var netErr net.Error
		if errors.As(err, &netErr) {
			return ClassTransient
		}
		return ClassUnknown
	}
}

// describe collects the error text plus any response body and status code
// carried by the known structured error types.
func describe(err error) (string, int) {
	text := err.Error()
	code := 0

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code = gerr.Code
		text += " " + gerr.Body
		for _, e := range gerr.Errors {
			text += " " + e.Reason
		}
	}

	var serr *StatusError
	if errors.As(err, &serr) {
		code = serr.Code
	}

	return text, code
}

// StatusError is returned by the raw HTTP adapters for non-200 responses
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Code, e.Body)
}

// QuotaExceededError reports that the model's daily quota is exhausted.
type QuotaExceededError struct {
	Model string
	Err   error
}

func (e *QuotaExceededError) Error() string {
	if e.Model == "" {
		return "vision model daily quota exceeded"
	}
	return fmt.Sprintf("daily quota exceeded for model %s", e.Model)
}

func (e *QuotaExceededError) Unwrap() error { return e.Err }

// RemoteError is a classified, non-quota provider failure.
type RemoteError struct {
	Class ErrorClass
	Err   error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failure: %v", e.Class, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Classify wraps err according to classify. Quota failures become
// *QuotaExceededError, everything else *RemoteError.
func Classify(model string, err error, classify Classifier) error {
	if err == nil {
		return nil
	}
	class := classify(err)
	if class == ClassQuota {
		return &QuotaExceededError{Model: model, Err: err}
	}
	return &RemoteError{Class: class, Err: err}
}

// IsQuotaExceeded reports whether err is, or wraps, a quota failure.
func IsQuotaExceeded(err error) bool {
	var q *QuotaExceededError
	return errors.As(err, &q)
}
