package ai

import (
	"github.com/benvon/focus-board/internal/logger"
)

const (
	// MaxPreviewLength bounds prompt and response previews in logs
	MaxPreviewLength = 200
	// MaxDebugContentLength bounds full-content logging in debug mode
	MaxDebugContentLength = 10000
	// RedactedValue replaces sensitive data
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey keeps the first and last four characters of a key
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt returns a loggable copy of a prompt; fullLog raises the length bound
func SanitizePrompt(prompt string, fullLog bool) string {
	return logger.SanitizeString(prompt, previewLength(fullLog))
}

// SanitizeResponse returns a loggable copy of a model response
func SanitizeResponse(response string, fullLog bool) string {
	return logger.SanitizeString(response, previewLength(fullLog))
}

func previewLength(fullLog bool) int {
	if fullLog {
		return MaxDebugContentLength
	}
	return MaxPreviewLength
}
