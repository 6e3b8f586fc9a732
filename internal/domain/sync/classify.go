package sync

import "strings"

// ErrorType classifies a failed transmission and drives the retry policy
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION ERROR"
	ErrorTypeApplication ErrorType = "APPLICATION ERROR"
	ErrorTypeNetwork     ErrorType = "NETWORK ERROR"
	ErrorTypeUnknown     ErrorType = "UNKNOWN ERROR"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeParse       ErrorType = "PARSE ERROR"
)

// String returns the string representation
func (e ErrorType) String() string {
	return string(e)
}

// ShouldRetry reports whether a failure of this type is worth retrying
// automatically. Validation and application errors need a human to fix
// the data first.
func (e ErrorType) ShouldRetry() bool {
	return e == ErrorTypeNetwork || e == ErrorTypeTimeout
}

var (
	validationKeywords = []string{
		"does not exist", "not found", "invalid", "duplicate",
		"already exists", "cannot be empty", "required",
	}
	// Dependency and permission issues are configuration problems,
	// not transient faults
	applicationKeywords = []string{
		"parent", "group", "under",
		"permission", "access denied", "not allowed",
	}
	networkKeywords = []string{"timeout", "connection", "network"}
)

// Classify maps a gateway LINEERROR (or transport error) onto an ErrorType
// by keyword. Order matters: validation wins over application wins over
// network, mirroring how ambiguous Tally messages are best handled.
func Classify(message string) ErrorType {
	lower := strings.ToLower(message)

	for _, kw := range validationKeywords {
		if strings.Contains(lower, kw) {
			return ErrorTypeValidation
		}
	}
	for _, kw := range applicationKeywords {
		if strings.Contains(lower, kw) {
			return ErrorTypeApplication
		}
	}
	for _, kw := range networkKeywords {
		if strings.Contains(lower, kw) {
			return ErrorTypeNetwork
		}
	}
	return ErrorTypeUnknown
}
