package triage

import (
	"errors"
	"fmt"
)

// ErrUpstream marks a provider call failure. Retry policy belongs to the
// caller; the engine never retries and never maps this to an outcome.
var ErrUpstream = errors.New("llm provider unavailable")

// MalformedDecisionError means the model reply could not be parsed into a
// decision. The raw output is preserved for diagnosis.
type MalformedDecisionError struct {
	Raw    string
	Reason string
}

func (e *MalformedDecisionError) Error() string {
	return fmt.Sprintf("malformed triage decision: %s", e.Reason)
}
