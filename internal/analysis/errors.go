package analysis

import "fmt"

// ConfigError means the request could not even be attempted: missing
// credential or malformed input. Not retryable without fixing the input.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "appraisal not configured: " + e.Reason
}

// ProviderError wraps a transport, auth, rate-limit or timeout failure
// from the external provider. Potentially retryable.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider request failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ParseError means the provider responded but its output did not match the
// required schema. Raw carries the full response text for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse appraisal response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
