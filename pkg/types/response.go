// Package types holds the JSON envelopes every API response uses.
package types

// SuccessEnvelope wraps every 2xx JSON body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope wraps every error body as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError is the client-visible part of a failure. RequestID echoes the
// X-Request-Id response header so a report can be matched to its log line.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
