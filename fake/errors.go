package fake

import (
	"errors"
	"fmt"
)

// ErrNoBaseMethod is returned when a rule delegates to the real
// implementation but the call carries none.
var ErrNoBaseMethod = errors.New("call has no base implementation")

// ConfigurationError reports a rule that cannot legally be registered.
// It is always returned to the configuring caller, never at dispatch time.
type ConfigurationError struct {
	Rule   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Rule == "" {
		return "invalid rule configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid rule configuration for %s: %s", e.Rule, e.Reason)
}

func configErrorf(rule, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// InvariantViolation is the panic value for programmer errors detected
// while applying a rule.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "fake invariant violated: " + e.Reason
}
