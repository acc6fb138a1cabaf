package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
)

const (
	ErrCodeAuthentication = "authentication_error"
	ErrCodeRateLimit      = "rate_limit_exceeded"
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeServerError    = "server_error"
	ErrCodeTimeout        = "timeout"
	ErrCodeEmptyResponse  = "empty_response"
)

// ProviderError is a failed generation classified by cause.
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(code, message string, err error) *ProviderError {
	return &ProviderError{Code: code, Message: message, Err: err}
}

func IsTimeoutError(err error) bool {
	return hasCode(err, ErrCodeTimeout)
}

func IsAuthenticationError(err error) bool {
	return hasCode(err, ErrCodeAuthentication)
}

func hasCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}

func classifyStatus(status int, message string, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewProviderError(ErrCodeAuthentication, message, err)
	case status == http.StatusTooManyRequests:
		return NewProviderError(ErrCodeRateLimit, message, err)
	case status >= 500:
		return NewProviderError(ErrCodeServerError, message, err)
	default:
		return NewProviderError(ErrCodeInvalidRequest, message, err)
	}
}

// mapError turns client and transport errors into a ProviderError.
func mapError(provider string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProviderError(ErrCodeTimeout, provider+": request timed out or cancelled", err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode, provider+": request rejected", err)
	}

	msg := err.Error()
	if strings.Contains(msg, "status code: 401") || strings.Contains(msg, "401 Unauthorized") {
		return NewProviderError(ErrCodeAuthentication, provider+": request rejected", err)
	}
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return NewProviderError(ErrCodeServerError, provider+": server unreachable", err)
	}

	return NewProviderError(ErrCodeServerError, provider+": generation failed", err)
}
