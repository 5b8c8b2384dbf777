package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := err.Error()
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError classifies rate limit and quota failures; other errors yield nil
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		if sdkErr.StatusCode != http.StatusTooManyRequests {
			return nil
		}
		return newRateLimitError(sdkErr.Message, sdkErr.Type, sdkErr.Code)
	}

	// Wrapped or proxied errors keep the status and JSON body in the message
	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}

	apiErr := newRateLimitError(errStr, "rate_limit_error", "")
	if jsonStart := strings.Index(errStr, "{"); jsonStart != -1 {
		if jsonEnd := strings.LastIndex(errStr, "}"); jsonEnd > jsonStart {
			var errorData struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			}
			if json.Unmarshal([]byte(errStr[jsonStart:jsonEnd+1]), &errorData) == nil {
				apiErr = newRateLimitError(errorData.Message, errorData.Type, errorData.Code)
			}
		}
	}
	return apiErr
}

func newRateLimitError(message, errType, code string) *APIError {
	apiErr := &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Message:     message,
		Type:        errType,
		Code:        code,
		IsPermanent: code == "insufficient_quota",
	}

	// Rate limits typically reset within a minute; quota needs a human
	retryAfter := 60 * time.Second
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	}
	apiErr.RetryAfter = &retryAfter
	return apiErr
}
