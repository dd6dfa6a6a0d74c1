package failure

import "fmt"

// Kind classifies a failure by how the caller should react to it.
type Kind string

const (
	ConfigurationUnavailable Kind = "configuration_unavailable"
	ValidationFailure        Kind = "validation_failure"
	NetworkFailure           Kind = "network_failure"
	TimeoutFailure           Kind = "timeout_failure"
	BackendRejection         Kind = "backend_rejection"
	QuotaExceeded            Kind = "quota_exceeded"
)

// Failure is the structured failure carried by every result type in the core.
// Message is safe to show to the end user; Diagnostic is an optional raw code
// appended as a suffix.
type Failure struct {
	Kind       Kind   `json:"kind"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	Diagnostic string `json:"diagnostic,omitempty"`
	// NotFound marks a rejection caused by a record that does not exist.
	NotFound bool `json:"not_found,omitempty"`
}

func (f *Failure) Error() string {
	if f.Field != "" {
		return fmt.Sprintf("%s (%s): %s", f.Kind, f.Field, f.UserMessage())
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.UserMessage())
}

// UserMessage returns the message shown to the user, with the diagnostic code
// as a suffix when one is present.
func (f *Failure) UserMessage() string {
	if f.Diagnostic == "" {
		return f.Message
	}
	return fmt.Sprintf("%s (code: %s)", f.Message, f.Diagnostic)
}

// Is matches failures by kind, so errors.Is(err, &Failure{Kind: TimeoutFailure}) works.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == f.Kind && (t.Field == "" || t.Field == f.Field)
}

func New(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// Validation builds a ValidationFailure attributed to field.
func Validation(field, message string) *Failure {
	return &Failure{Kind: ValidationFailure, Field: field, Message: message}
}

func Unconfigured(message string) *Failure {
	return &Failure{Kind: ConfigurationUnavailable, Message: message}
}

func Network(message string) *Failure {
	return &Failure{Kind: NetworkFailure, Message: message}
}

func Timeout(message string) *Failure {
	return &Failure{Kind: TimeoutFailure, Message: message}
}

// Rejected builds a BackendRejection carrying the raw backend code as diagnostic.
func Rejected(message, code string) *Failure {
	return &Failure{Kind: BackendRejection, Message: message, Diagnostic: code}
}

// Missing builds a BackendRejection for a record that does not exist.
func Missing(message string) *Failure {
	return &Failure{Kind: BackendRejection, Message: message, NotFound: true}
}

func Quota(message string) *Failure {
	return &Failure{Kind: QuotaExceeded, Message: message}
}
