package photo

import (
	"fmt"

	"pataalerta/internal/failure"
)

// Code is the closed set of rejection reasons a Host can report.
type Code string

const (
	InvalidFile       Code = "invalid_file"
	Unauthorized      Code = "unauthorized"
	QuotaExceeded     Code = "quota_exceeded"
	RateLimited       Code = "rate_limited"
	ServerUnavailable Code = "server_unavailable"
	Unknown           Code = "unknown"
)

// BackendError is a rejection returned by the photo host. Raw carries the
// service's own code for diagnostics.
type BackendError struct {
	Code Code
	Raw  string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("photo host rejected upload: %s (%s)", e.Code, e.Raw)
}

const defaultUploadMessage = "Failed to upload photo. Try again."

var codeMessages = map[Code]string{
	InvalidFile:       "Invalid image file. Choose another photo.",
	Unauthorized:      "Photo upload not authorized. Contact the administrator.",
	QuotaExceeded:     "Photo storage is full. Try again later.",
	RateLimited:       "Too many uploads. Wait a moment and try again.",
	ServerUnavailable: "Photo service unavailable. Try again later.",
}

// Translate maps a backend rejection to a user-facing failure. Codes outside
// the enumeration fall back to the generic message with the raw code attached.
func Translate(e *BackendError) *failure.Failure {
	if msg, ok := codeMessages[e.Code]; ok {
		return failure.Rejected(msg, "")
	}
	raw := e.Raw
	if raw == "" {
		raw = string(e.Code)
	}
	return failure.Rejected(defaultUploadMessage, raw)
}
