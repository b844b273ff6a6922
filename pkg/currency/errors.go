package currency

import "fmt"

// ValidationErrorKind discriminates the three-way error taxonomy the
// Monetary System validators and the transaction processor raise.
type ValidationErrorKind int

const (
	// KindNotValid marks a permanent validation failure. A peer that
	// supplied the offending transaction is blacklisted.
	KindNotValid ValidationErrorKind = iota
	// KindNotCurrentlyValid marks a transient failure (height-, activation-,
	// or uniqueness-dependent) that may succeed later. Silently skipped on
	// the peer-batch path, not grounds for blacklisting.
	KindNotCurrentlyValid
	// KindNotYetEnabled marks a feature gated by height or explicit disable
	// (e.g. SHUFFLEABLE). Treated as KindNotCurrentlyValid by the peer path.
	KindNotYetEnabled
)

func (k ValidationErrorKind) String() string {
	switch k {
	case KindNotValid:
		return "not_valid"
	case KindNotCurrentlyValid:
		return "not_currently_valid"
	case KindNotYetEnabled:
		return "not_yet_enabled"
	default:
		return "unknown"
	}
}

// ValidationError is the error type returned by CapabilityValidator and
// NamingValidator. Callers distinguish behavior via Is/As against the
// Kind-returning helpers below, not by string matching.
type ValidationError struct {
	Kind   ValidationErrorKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// NotValid constructs a permanent ValidationError.
func NotValid(reason string) *ValidationError {
	return &ValidationError{Kind: KindNotValid, Reason: reason}
}

// NotValidf is NotValid with fmt.Sprintf formatting.
func NotValidf(format string, args ...any) *ValidationError {
	return NotValid(fmt.Sprintf(format, args...))
}

// NotCurrentlyValid constructs a transient ValidationError.
func NotCurrentlyValid(reason string) *ValidationError {
	return &ValidationError{Kind: KindNotCurrentlyValid, Reason: reason}
}

// NotYetEnabled constructs a feature-gate ValidationError.
func NotYetEnabled(reason string) *ValidationError {
	return &ValidationError{Kind: KindNotYetEnabled, Reason: reason}
}

// IsNotValid reports whether err is a permanent ValidationError.
func IsNotValid(err error) bool {
	ve, ok := err.(*ValidationError)
	return ok && ve.Kind == KindNotValid
}

// IsNotCurrentlyValid reports whether err is transient, including the
// NotYetEnabled variant — the peer path treats both identically.
func IsNotCurrentlyValid(err error) bool {
	ve, ok := err.(*ValidationError)
	return ok && (ve.Kind == KindNotCurrentlyValid || ve.Kind == KindNotYetEnabled)
}
