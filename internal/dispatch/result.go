// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package dispatch

import "strings"

// DeliveryResult is the terminal outcome of one webhook delivery attempt.
//
// Delivered is true when the HTTP call completed with any status code;
// that is also the condition under which the delivery timestamp is
// recorded. A non-2xx response leaves Delivered true but sets ErrorCode
// and ErrorMessage with the status detail.
type DeliveryResult struct {
	Delivered    bool
	ResponseCode int
	Path         string
	ErrorCode    string
	ErrorMessage string
}

// Error codes for delivery failures.
const (
	ErrorCodeInvalidConfig    = "INVALID_CONFIG"
	ErrorCodeConnectionFailed = "CONNECTION_FAILED"
	ErrorCodeTimeout          = "TIMEOUT"
	ErrorCodeAuthFailed       = "AUTH_FAILED"
	ErrorCodeRateLimited      = "RATE_LIMITED"
	ErrorCodeServerError      = "SERVER_ERROR"
	ErrorCodeUnknown          = "UNKNOWN"
)

// classifyTransportError maps an HTTP client error to an error code.
func classifyTransportError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return ErrorCodeTimeout
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "refused") {
		return ErrorCodeConnectionFailed
	}
	return ErrorCodeUnknown
}

// classifyStatusCode maps a non-2xx HTTP status to an error code.
func classifyStatusCode(code int) string {
	switch {
	case code == 401 || code == 403:
		return ErrorCodeAuthFailed
	case code == 429:
		return ErrorCodeRateLimited
	case code >= 500:
		return ErrorCodeServerError
	default:
		return ErrorCodeUnknown
	}
}
